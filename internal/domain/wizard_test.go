package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/campus-assistant/internal/tools"
)

func testFields() []FieldSpec {
	return []FieldSpec{
		{Name: "nome_completo", Prompt: "Nome?", Validator: ValidateText},
		{Name: "data_nascimento", Prompt: "Nascimento?", Validator: ValidateDate},
		{Name: "telefone", Prompt: "Telefone?", Validator: ValidatePhone, Optional: true},
		{Name: "curso", Prompt: "Curso?", Validator: ValidateText, Optional: true, WireName: "curso_codigo"},
	}
}

func TestWizardCollectsInOrder(t *testing.T) {
	w := NewRegistrationWizard(testFields())
	assert.Equal(t, StageConfirming, w.Stage)
	_, ok := w.Current()
	assert.False(t, ok, "no field before Begin")

	w.Begin()
	f, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, "nome_completo", f.Name)

	require.NoError(t, w.Submit("Maria Souza"))
	f, _ = w.Current()
	assert.Equal(t, "data_nascimento", f.Name)

	err := w.Submit("31/13/2020")
	var fve *FieldValidationError
	require.True(t, errors.As(err, &fve))
	assert.Equal(t, "data_nascimento", fve.Field)
	assert.Equal(t, 1, w.Cursor, "invalid answer does not advance")

	require.NoError(t, w.Submit("15/03/2000"))
	require.NoError(t, w.Submit("pular"))
	assert.False(t, w.Done())
	require.NoError(t, w.Submit("BCC"))
	assert.True(t, w.Done())

	want := map[string]any{
		"nome_completo":   "Maria Souza",
		"data_nascimento": "2000-03-15",
		"curso_codigo":    "BCC",
	}
	if diff := cmp.Diff(want, w.Arguments()); diff != "" {
		t.Errorf("Arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestWizardSkipOnRequiredField(t *testing.T) {
	w := NewRegistrationWizard(testFields())
	w.Begin()

	for _, tok := range []string{"pular", "Não", " - "} {
		err := w.Submit(tok)
		require.Error(t, err, tok)
		assert.Equal(t, 0, w.Cursor)
	}
}

func TestWizardProgress(t *testing.T) {
	w := NewRegistrationWizard(testFields())
	w.Begin()
	i, n := w.Progress()
	assert.Equal(t, 1, i)
	assert.Equal(t, 4, n)
}

func TestSessionState(t *testing.T) {
	s := NewSession("k", time.Unix(0, 0))
	assert.Equal(t, StateIdle, s.State())

	call := tools.NewCall(tools.CreateRequirement, map[string]any{tools.ArgType: tools.ReqLock})
	s.SetPending(&PendingAction{Kind: PendingGenericConfirmation, Call: &call})
	assert.Equal(t, StateAwaitingConfirmation, s.State())

	s.StartWizard(NewRegistrationWizard(testFields()))
	assert.Equal(t, StateCollectingRegistration, s.State())
	assert.Nil(t, s.Pending, "wizard replaces pending action")

	s.SetPending(&PendingAction{Kind: PendingServiceInterest})
	assert.Nil(t, s.Wizard, "pending action replaces wizard")

	s.Login("7", "Maria")
	assert.True(t, s.Authenticated())
	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("k", time.Unix(0, 0))
	call := tools.NewCall(tools.CreateRequirement, map[string]any{tools.ArgType: tools.ReqLock})
	s.SetPending(&PendingAction{Kind: PendingGenericConfirmation, Call: &call})

	c := s.Clone()
	c.Pending.Call.Args[tools.ArgType] = tools.ReqDiploma
	assert.Equal(t, tools.ReqLock, s.Pending.Call.Arg(tools.ArgType))
}
