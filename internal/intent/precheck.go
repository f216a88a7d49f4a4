package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/campus-assistant/internal/textnorm"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// ServiceRegistration names the service row that starts the registration wizard.
const ServiceRegistration = "registration"

const studentRequest = "Solicitação do aluno"

var interestNameRe = regexp.MustCompile(`(?:gosto|adorei|amei|legal|interessante|fascinante|incr[ií]vel|excelente|ador[aá]vel)(?:\s+(?:de|da|do))?\s+(.+?)(?:$|[,.!?])`)

// SubjectInterest is enthusiasm about a subject, named by code or by free text.
type SubjectInterest struct {
	Code string
	Name string
}

// DetectSubjectInterest finds expressions like "adorei a materia ALG-101".
// A match without a code still returns the subject name so the caller can ask for the code.
func (l *Lexicon) DetectSubjectInterest(in Input) (SubjectInterest, bool) {
	if !textnorm.HasAnyWord(in.Folded, l.Interest.Words) || !textnorm.HasAnyWord(in.Folded, l.Interest.Context) {
		return SubjectInterest{}, false
	}
	if code := firstCode(in.Raw); code != "" {
		return SubjectInterest{Code: code, Name: code}, true
	}
	m := interestNameRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(in.Raw)))
	if m == nil {
		return SubjectInterest{}, false
	}
	name := strings.Join(strings.Fields(m[1]), " ")
	if name == "" {
		return SubjectInterest{}, false
	}
	return SubjectInterest{Name: name}, true
}

// InterestCall is the deferred add-subject request for an interest.
func (s SubjectInterest) InterestCall() tools.Call {
	return tools.NewCall(tools.CreateRequirement, map[string]any{
		tools.ArgType: tools.ReqAddSubject,
		tools.ArgCode: s.Code,
	})
}

// EnrollmentStatus is the answer to "is the student taking this subject".
type EnrollmentStatus int

const (
	EnrollmentUnknown EnrollmentStatus = iota
	EnrollmentTaking
	EnrollmentNotTaking
)

// EnrollmentQuestion is the student-query question asked for code.
func EnrollmentQuestion(code string) string {
	return "estou cursando " + code
}

// ParseEnrollment reads the backend's free-text answer to EnrollmentQuestion.
func ParseEnrollment(reply string) EnrollmentStatus {
	f := textnorm.Fold(reply)
	if !strings.Contains(f, "cursando") {
		return EnrollmentUnknown
	}
	switch {
	case textnorm.HasWord(f, "sim"):
		return EnrollmentTaking
	case textnorm.HasWord(f, "nao"):
		return EnrollmentNotTaking
	}
	return EnrollmentUnknown
}

// InterestReply is the text shown for an interest given the enrollment status.
func InterestReply(s SubjectInterest, status EnrollmentStatus) string {
	if s.Code == "" {
		return fmt.Sprintf("Que legal você se interessar por %s!\n\n"+
			"Para adicionar à sua grade, preciso do código da disciplina (ex: ALG-101, MAT-102).\n\n"+
			"Qual é o código exato da matéria?", s.Name)
	}
	switch status {
	case EnrollmentTaking:
		return fmt.Sprintf("Que legal! Você já está cursando %s.\n\nEspero que esteja aproveitando bem a disciplina!", s.Code)
	case EnrollmentNotTaking:
		return fmt.Sprintf("Que legal você se interessar por %s!\n\n"+
			"Você não está cursando essa disciplina no momento. Gostaria de adicionar %s à sua grade de disciplinas?\n\n"+
			"Confirme: Sim ou Não?", s.Code, s.Code)
	}
	return fmt.Sprintf("Que legal você se interessar por %s!\n\nGostaria de adicionar essa disciplina à sua grade?\nResponda: Sim ou Não", s.Code)
}

// ServiceNeed is an implicit request for a service, detected before the cascade.
type ServiceNeed struct {
	Rule    ServiceRule
	Subtype *SubtypeDef
}

// DetectServiceNeed walks the service table in order and returns the first row
// with a trigger present in the text.
func (l *Lexicon) DetectServiceNeed(in Input) (ServiceNeed, bool) {
	for _, rule := range l.Services {
		if !textnorm.HasAnyWord(in.Folded, rule.Triggers) {
			continue
		}
		need := ServiceNeed{Rule: rule}
		for i := range rule.Subtypes {
			if textnorm.ContainsAny(in.Folded, rule.Subtypes[i].Words) {
				need.Subtype = &rule.Subtypes[i]
				break
			}
		}
		return need, true
	}
	return ServiceNeed{}, false
}

// IsRegistration reports whether the need starts the registration wizard.
func (n ServiceNeed) IsRegistration() bool {
	return n.Rule.Service == ServiceRegistration
}

// Call returns the requirement the service would open.
func (n ServiceNeed) Call() tools.Call {
	args := map[string]any{tools.ArgType: n.Rule.Service}
	switch n.Rule.Service {
	case tools.ReqDeclaration:
		if n.Subtype != nil {
			args[tools.ArgDeclaration] = n.Subtype.Name
		}
	case tools.ReqTransfer:
		if n.Subtype != nil {
			args[tools.ArgTransfer] = n.Subtype.Name
		}
		args[tools.ArgReason] = studentRequest
	case tools.ReqLock:
		args[tools.ArgReason] = studentRequest
	}
	return tools.NewCall(tools.CreateRequirement, args)
}

// SubtypeName returns the detected sub-type or "".
func (n ServiceNeed) SubtypeName() string {
	if n.Subtype == nil {
		return ""
	}
	return n.Subtype.Name
}

// Proposal is the question put to the student before opening the service.
func (n ServiceNeed) Proposal() string {
	msg := n.Rule.Message
	if n.Subtype != nil {
		switch n.Rule.Service {
		case tools.ReqDeclaration:
			msg = fmt.Sprintf("Vou gerar uma declaração de %s para você. Confirme: Sim ou Não?", n.Subtype.Label)
		case tools.ReqTransfer:
			msg = fmt.Sprintf("Você gostaria de fazer uma transferência %s? Confirme: Sim ou Não?", n.Subtype.Label)
		}
	}
	return msg + "\n\nResponda: Sim ou Não"
}
