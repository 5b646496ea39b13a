package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/coregx/p2pchat/model"
)

var (
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7A89"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
)

// styledDisplay is the terminal p2pchat.Display.
type styledDisplay struct {
	mu sync.Mutex
	w  io.Writer
}

func newStyledDisplay(w io.Writer) *styledDisplay {
	return &styledDisplay{w: w}
}

func (d *styledDisplay) ShowMessage(e model.Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "%s %s %s\n",
		timeStyle.Render("["+e.SentTime().Format("15:04:05")+"]"),
		nameStyle.Render(e.AuthorDisplayName+":"),
		e.Content)
}

func (d *styledDisplay) ShowNotice(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, noticeStyle.Render(text))
}

func (d *styledDisplay) ShowError(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, errorStyle.Render("error: "+text))
}
