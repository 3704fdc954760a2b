// Package tcp serves CPU utilization snapshots over a line oriented TCP
// protocol. A client sends a single request, "GET CPU ONCE" or
// "GET CPU LOOP" in any letter case, and the server either answers once
// and hangs up or keeps pushing every changed snapshot until the client
// goes away. Anything else is silently ignored.
package tcp

import (
	"fmt"
	"strings"

	"healthd/internal/domain"
)

type Mode int

const (
	ModeOnce Mode = iota + 1
	ModeLoop
)

func (m Mode) String() string {
	switch m {
	case ModeOnce:
		return "once"
	case ModeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// ParseRequest tokenizes line on whitespace and recognizes exactly
// "GET CPU ONCE" and "GET CPU LOOP".
func ParseRequest(line string) (Mode, error) {
	tokens := strings.Fields(line)
	if len(tokens) != 3 {
		return 0, fmt.Errorf("%w: expected 3 tokens, got %d", domain.ErrInvalidRequest, len(tokens))
	}

	if !strings.EqualFold(tokens[0], "get") || !strings.EqualFold(tokens[1], "cpu") {
		return 0, fmt.Errorf("%w: unknown command %q", domain.ErrInvalidRequest, tokens[0]+" "+tokens[1])
	}

	switch strings.ToLower(tokens[2]) {
	case "once":
		return ModeOnce, nil
	case "loop":
		return ModeLoop, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidRequest, tokens[2])
	}
}
