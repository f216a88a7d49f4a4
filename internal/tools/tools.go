// Package tools describes the backend operations the assistant can invoke and
// the bridge that executes them.
package tools

import (
	"context"
	"errors"
)

var (
	// ErrUnknownTool is returned for operation names missing from the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingArgument is returned when a required argument is absent.
	ErrMissingArgument = errors.New("missing required argument")
	// ErrUnavailable means the backend could not be reached or timed out.
	ErrUnavailable = errors.New("tool backend unavailable")
	// ErrExecution means the backend ran the operation and reported a failure.
	ErrExecution = errors.New("tool execution failed")
	// ErrInvalidCredentials is returned by an Authenticator for unknown students.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a private operation has no principal.
	ErrUnauthenticated = errors.New("authentication required")
)

// Call is one invocation of a named operation.
type Call struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// NewCall builds a Call, dropping nil-valued arguments.
func NewCall(name string, args map[string]any) Call {
	clean := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		clean = nil
	}
	return Call{Name: name, Args: clean}
}

// Arg returns a string argument or "".
func (c Call) Arg(key string) string {
	s, _ := c.Args[key].(string)
	return s
}

// Bridge executes operations against the backend.
type Bridge interface {
	Invoke(ctx context.Context, call Call) (string, error)
}

// Principal is an authenticated student.
type Principal struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Authenticator verifies a student identifier against the backend.
type Authenticator interface {
	Login(ctx context.Context, studentID string) (Principal, error)
}

type principalKey struct{}

// WithPrincipal attaches the authenticated user ID to ctx for private calls.
func WithPrincipal(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// PrincipalFromContext returns the user ID set by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(principalKey{}).(string)
	return v, ok && v != ""
}
