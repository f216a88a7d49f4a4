package dialogue

import (
	"context"
	"errors"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/intent"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// precheck runs the subject-interest and service-need detectors on an idle turn.
func (o *Orchestrator) precheck(ctx context.Context, sess *domain.Session, in intent.Input) (outcome, bool) {
	if interest, ok := o.lex.DetectSubjectInterest(in); ok {
		return o.subjectInterest(ctx, sess, in, interest), true
	}
	if need, ok := o.lex.DetectServiceNeed(in); ok {
		return o.serviceNeed(sess, in, need), true
	}
	return outcome{}, false
}

func (o *Orchestrator) subjectInterest(ctx context.Context, sess *domain.Session, in intent.Input, s intent.SubjectInterest) outcome {
	if s.Code == "" {
		return outcome{text: intent.InterestReply(s, intent.EnrollmentUnknown), source: intent.SourcePrecheck}
	}
	if !sess.Authenticated() {
		return outcome{text: o.lex.Login(loginPurposeSubject), source: intent.SourceGate}
	}

	status := intent.EnrollmentUnknown
	query := tools.NewCall(tools.StudentQuery, map[string]any{tools.ArgQuestion: intent.EnrollmentQuestion(s.Code)})
	if text, err := o.invoke(ctx, sess, query); err == nil {
		status = intent.ParseEnrollment(text)
	}

	if status != intent.EnrollmentTaking {
		call := s.InterestCall()
		sess.SetPending(&domain.PendingAction{
			Kind:            domain.PendingSubjectInterest,
			Call:            &call,
			Subject:         s.Code,
			Description:     intent.Describe(call),
			OriginatingText: in.Raw,
		})
	}
	return outcome{text: intent.InterestReply(s, status), source: intent.SourcePrecheck}
}

func (o *Orchestrator) serviceNeed(sess *domain.Session, in intent.Input, need intent.ServiceNeed) outcome {
	if need.IsRegistration() {
		sess.StartWizard(domain.NewRegistrationWizard(o.lex.RegistrationFields))
		return outcome{text: msgWizardIntro, source: intent.SourcePrecheck}
	}

	call := need.Call()
	if !sess.Authenticated() && o.registry.RequiresAuth(call.Name) {
		purpose := need.Rule.Purpose
		if purpose == "" {
			purpose = loginPurposeGeneric
		}
		return outcome{text: o.lex.Login(purpose), source: intent.SourceGate}
	}

	sess.SetPending(&domain.PendingAction{
		Kind:            domain.PendingServiceInterest,
		Call:            &call,
		Service:         need.Rule.Service,
		Subtype:         need.SubtypeName(),
		Description:     intent.Describe(call),
		OriginatingText: in.Raw,
	})
	return outcome{text: need.Proposal(), source: intent.SourcePrecheck}
}

// pendingTurn answers a yes/no for the pending action. It reports false when
// the reply is neither, after discarding the pending action.
func (o *Orchestrator) pendingTurn(ctx context.Context, sess *domain.Session, in intent.Input) (outcome, bool) {
	pending := sess.Pending
	sess.SetPending(nil)

	switch o.lex.ClassifyConsent(in.Folded) {
	case intent.ConsentNegative:
		text := msgGenericDenied
		switch pending.Kind {
		case domain.PendingSubjectInterest:
			text = msgInterestDenied
		case domain.PendingServiceInterest:
			text = msgServiceDenied
		}
		return outcome{text: text, source: intent.SourceSession}, true

	case intent.ConsentAffirmative:
		if pending.Call == nil {
			return outcome{text: msgGenericDenied, source: intent.SourceSession}, true
		}
		out := o.dispatch(ctx, sess, *pending.Call)
		switch pending.Kind {
		case domain.PendingSubjectInterest:
			out.text = interestConfirmedText(pending.Subject) + "\n\n" + out.text
		case domain.PendingGenericConfirmation:
			out.suggest = true
		}
		return out, true
	}

	o.logger.Debug("pending action discarded", "session_key", sess.Key, "kind", pending.Kind)
	return outcome{}, false
}

// wizardTurn feeds one reply to the registration wizard.
func (o *Orchestrator) wizardTurn(ctx context.Context, sess *domain.Session, text string) outcome {
	w := sess.Wizard

	if w.Stage == domain.StageConfirming {
		switch o.lex.ClassifyConsent(intent.NewInput(text, false).Folded) {
		case intent.ConsentAffirmative:
			w.Begin()
			if w.Done() {
				return o.finishWizard(ctx, sess)
			}
			return outcome{text: fieldPrompt(w), source: intent.SourceSession}
		case intent.ConsentNegative:
			sess.Reset()
			return outcome{text: msgWizardDeclined, source: intent.SourceSession}
		}
		return outcome{text: msgWizardReprompt, source: intent.SourceSession}
	}

	if err := w.Submit(text); err != nil {
		reason := err.Error()
		var fve *domain.FieldValidationError
		if errors.As(err, &fve) {
			reason = fve.Reason
		}
		return outcome{text: reason + "\n\n" + fieldPrompt(w), source: intent.SourceSession}
	}
	if w.Done() {
		return o.finishWizard(ctx, sess)
	}
	return outcome{text: fieldPrompt(w), source: intent.SourceSession}
}

func (o *Orchestrator) finishWizard(ctx context.Context, sess *domain.Session) outcome {
	call := tools.NewCall(tools.RegisterStudent, sess.Wizard.Arguments())
	sess.Reset()
	o.logger.Info("Registration wizard completed", "session_key", sess.Key)
	return o.dispatch(ctx, sess, call)
}
