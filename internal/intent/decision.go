// Package intent maps one utterance to a decision: invoke a backend
// operation, or reply conversationally.
package intent

import (
	"github.com/ashureev/campus-assistant/internal/textnorm"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// Kind tags a Decision.
type Kind int

const (
	KindReply Kind = iota
	KindTool
)

func (k Kind) String() string {
	if k == KindTool {
		return "tool"
	}
	return "reply"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Source records which stage produced a Decision.
type Source string

const (
	SourceCascade   Source = "cascade"
	SourceInference Source = "inference"
	SourceHeuristic Source = "heuristic"
	SourcePrecheck  Source = "precheck"
	SourceGate      Source = "gate"
	SourceSession   Source = "session"
)

// Decision is either a tool invocation (Kind == KindTool, Call set) or a
// conversational reply (Text set).
type Decision struct {
	Kind   Kind       `json:"kind"`
	Call   tools.Call `json:"call"`
	Text   string     `json:"text,omitempty"`
	Source Source     `json:"source"`
}

// Invoke builds a tool decision.
func Invoke(call tools.Call, src Source) Decision {
	return Decision{Kind: KindTool, Call: call, Source: src}
}

// Reply builds a conversational decision.
func Reply(text string, src Source) Decision {
	return Decision{Kind: KindReply, Text: text, Source: src}
}

// IsTool reports whether d invokes an operation.
func (d Decision) IsTool() bool { return d.Kind == KindTool }

// Input is one utterance plus the session facts detectors may read.
type Input struct {
	Raw           string
	Folded        string
	Authenticated bool
}

// NewInput folds raw for matching.
func NewInput(raw string, authenticated bool) Input {
	return Input{Raw: raw, Folded: textnorm.Fold(raw), Authenticated: authenticated}
}
