package p2pchat

import (
	"fmt"
	"io"
	"sync"

	"github.com/coregx/p2pchat/model"
)

// Display renders session output. Inbound deliveries and command output
// arrive from different goroutines, so implementations must serialize
// their own writes.
type Display interface {
	// ShowMessage renders a chat message.
	ShowMessage(e model.Envelope)

	// ShowNotice renders an informational line.
	ShowNotice(text string)

	// ShowError renders a user-facing error line.
	ShowError(text string)
}

// TextDisplay is a plain line-oriented Display.
type TextDisplay struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextDisplay creates a TextDisplay writing to w.
func NewTextDisplay(w io.Writer) *TextDisplay {
	return &TextDisplay{w: w}
}

// ShowMessage writes "[15:04:05] name: content".
func (d *TextDisplay) ShowMessage(e model.Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "[%s] %s: %s\n", e.SentTime().Format("15:04:05"), e.AuthorDisplayName, e.Content)
}

// ShowNotice writes text as is.
func (d *TextDisplay) ShowNotice(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, text)
}

// ShowError writes text prefixed with "error: ".
func (d *TextDisplay) ShowError(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, "error: "+text)
}
