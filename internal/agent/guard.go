package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPrompt is returned when user input contains bytes from the
// forbidden set and must not be forwarded.
var ErrInvalidPrompt = errors.New("invalid prompt")

// forbiddenPromptBytes are rejected in prompts that may reach shell-bound
// tools, plus the control bytes below.
const forbiddenPromptBytes = "|&;$`\"'<>(){}[]*~#"

// ValidatePrompt rejects input containing any forbidden byte. Offending
// prompts surface a user-visible error and are never forwarded to the
// agent.
func ValidatePrompt(text string) error {
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b == '\n' || b == '\r' || b == '\t' || b == 0 {
			return fmt.Errorf("%w: control byte 0x%02x not allowed", ErrInvalidPrompt, b)
		}
		if strings.IndexByte(forbiddenPromptBytes, b) >= 0 {
			return fmt.Errorf("%w: character %q not allowed", ErrInvalidPrompt, b)
		}
	}
	return nil
}
