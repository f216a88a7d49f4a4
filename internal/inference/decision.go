// Package inference talks to the external natural-language classifier and
// turns its free-form output into a structured decision.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreachable means the inference service could not be reached in time.
	ErrUnreachable = errors.New("inference service unreachable")
	// ErrMalformedResponse means no usable decision could be recovered from the output.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Action values of a Decision.
const (
	ActionTool  = "ferramenta"
	ActionReply = "conversa"
)

// Decision is the structured output expected from the classifier.
type Decision struct {
	Action    string         `json:"acao"`
	Tool      string         `json:"ferramenta,omitempty"`
	Arguments map[string]any `json:"argumentos,omitempty"`
	Reply     string         `json:"resposta,omitempty"`
}

// Classifier sends a prompt to a model and returns its raw text answer.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Parse decodes raw model output. If the whole text is not JSON, the first
// balanced {...} substring is tried before giving up.
func Parse(raw string) (Decision, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Decision{}, fmt.Errorf("%w: empty output", ErrMalformedResponse)
	}

	d, err := decode(raw)
	if err == nil {
		return d, nil
	}

	obj, ok := ExtractObject(raw)
	if !ok {
		return Decision{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	d, err = decode(obj)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return d, nil
}

func decode(s string) (Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return Decision{}, err
	}
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	switch d.Action {
	case ActionTool:
		if strings.TrimSpace(d.Tool) == "" {
			return Decision{}, errors.New("tool decision without tool name")
		}
	case ActionReply:
		if strings.TrimSpace(d.Reply) == "" {
			return Decision{}, errors.New("reply decision without text")
		}
	default:
		return Decision{}, fmt.Errorf("unknown action %q", d.Action)
	}
	return d, nil
}

// ExtractObject returns the first balanced brace-delimited substring of s.
// Braces inside JSON string literals are ignored.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
