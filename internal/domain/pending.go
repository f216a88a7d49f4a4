package domain

import (
	"maps"

	"github.com/ashureev/campus-assistant/internal/tools"
)

// PendingKind tells how a pending action was proposed.
type PendingKind string

const (
	PendingSubjectInterest     PendingKind = "subject_interest"
	PendingServiceInterest     PendingKind = "service_interest"
	PendingGenericConfirmation PendingKind = "generic_confirmation"
)

// PendingAction is a state-changing operation waiting for a yes/no.
type PendingAction struct {
	Kind            PendingKind `json:"kind"`
	Call            *tools.Call `json:"call,omitempty"`
	Subject         string      `json:"subject,omitempty"`
	Service         string      `json:"service,omitempty"`
	Subtype         string      `json:"subtype,omitempty"`
	Description     string      `json:"description,omitempty"`
	OriginatingText string      `json:"originating_text"`
}

// Clone returns a deep copy.
func (p *PendingAction) Clone() *PendingAction {
	if p == nil {
		return nil
	}
	c := *p
	if p.Call != nil {
		call := tools.Call{Name: p.Call.Name, Args: maps.Clone(p.Call.Args)}
		c.Call = &call
	}
	return &c
}
