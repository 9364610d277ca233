package entities

import "fmt"

// Mode is the active interaction mode of the client.
type Mode string

const (
	ModeChat      Mode = "chat"
	ModeSummarize Mode = "summarize"
	ModeCodegen   Mode = "codegen"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeChat, ModeSummarize, ModeCodegen}

// ParseMode validates a mode label.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
