package widget

import (
	"mapexec/internal/sanitize"
)

// Kind selects the assistive-technology semantics of a message.
type Kind int

const (
	Info Kind = iota
	Error
)

func (k Kind) String() string {
	if k == Error {
		return "error"
	}
	return "info"
}

// Message is sanitized status text plus its live-region attributes.
type Message struct {
	HTML string
	Kind Kind
	Role string // alert | status
	Live string // assertive | polite
}

// Text is the message without markup.
func (m Message) Text() string { return sanitize.Text(m.HTML) }

// NewMessage sanitizes html and, for errors, frames it with the status icon
// unless one is already present.
func NewMessage(html string, kind Kind) Message {
	clean := sanitize.HTML(html)
	if kind == Error {
		if !sanitize.HasIcon(clean) {
			clean = sanitize.Icon + " " + clean + " " + sanitize.Icon
		}
		return Message{HTML: clean, Kind: Error, Role: "alert", Live: "assertive"}
	}
	return Message{HTML: clean, Kind: Info, Role: "status", Live: "polite"}
}
