package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/tools"
)

var t0 = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := domain.NewSession("anon:tab", t0)
	sess.Login("2023001", "Maria Souza")
	call := tools.NewCall(tools.CreateRequirement, map[string]any{tools.ArgType: tools.ReqAddSubject, tools.ArgCode: "MAT-102"})
	sess.SetPending(&domain.PendingAction{
		Kind:            domain.PendingGenericConfirmation,
		Call:            &call,
		Description:     "um requerimento de adicao de materia MAT-102",
		OriginatingText: "quero adicionar MAT-102",
	})
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.GetSession(ctx, "anon:tab")
	require.NoError(t, err)
	if diff := cmp.Diff(sess, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.StateAwaitingConfirmation, got.State())
}

func TestSessionWizardSurvivesReload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := domain.NewSession("cli", t0)
	w := domain.NewRegistrationWizard([]domain.FieldSpec{
		{Name: "nome_completo", Prompt: "Nome?", Validator: domain.ValidateText},
		{Name: "cpf", Prompt: "CPF?", Validator: domain.ValidateCPF},
	})
	w.Begin()
	require.NoError(t, w.Submit("Maria Souza"))
	sess.StartWizard(w)
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.GetSession(ctx, "cli")
	require.NoError(t, err)
	require.NotNil(t, got.Wizard)
	field, ok := got.Wizard.Current()
	require.True(t, ok)
	assert.Equal(t, "cpf", field.Name)
	assert.Equal(t, "Maria Souza", got.Wizard.Collected["nome_completo"])
}

func TestSaveSessionOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := domain.NewSession("k", t0)
	require.NoError(t, s.SaveSession(ctx, sess))
	sess.Login("42", "Aluno 42")
	sess.Touch(t0.Add(time.Minute))
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.GetSession(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "42", got.UserID)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Minute)))
}

func TestSaveSessionRequiresKey(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SaveSession(context.Background(), &domain.Session{}))
}

func TestTurnsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendTurn(ctx, domain.Turn{
			ID:         fmt.Sprintf("t%d", i),
			SessionKey: "k",
			Role:       domain.RoleUser,
			Content:    fmt.Sprintf("msg %d", i),
			CreatedAt:  t0.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.AppendTurn(ctx, domain.Turn{ID: "other", SessionKey: "x", Role: domain.RoleUser, Content: "x"}))

	all, err := s.ListTurns(ctx, "k", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "msg 0", all[0].Content)
	assert.True(t, all[0].CreatedAt.Equal(t0))

	last, err := s.ListTurns(ctx, "k", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, []string{"msg 3", "msg 4"}, []string{last[0].Content, last[1].Content})
}

func TestDeleteSessionRemovesTranscript(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, domain.NewSession("k", t0)))
	require.NoError(t, s.AppendTurn(ctx, domain.Turn{ID: "a", SessionKey: "k", Role: domain.RoleAssistant, Content: "oi"}))
	require.NoError(t, s.DeleteSession(ctx, "k"))

	_, err := s.GetSession(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	turns, err := s.ListTurns(ctx, "k", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return t0.Add(2 * time.Hour) }
	ctx := context.Background()

	old := domain.NewSession("old", t0)
	fresh := domain.NewSession("fresh", t0.Add(90*time.Minute))
	require.NoError(t, s.SaveSession(ctx, old))
	require.NoError(t, s.SaveSession(ctx, fresh))

	keys, err := s.CleanupExpiredSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, keys)

	_, err = s.GetSession(ctx, "fresh")
	assert.NoError(t, err)

	keys, err = s.CleanupExpiredSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			assert.NoError(t, s.SaveSession(ctx, domain.NewSession(key, t0)))
			assert.NoError(t, s.AppendTurn(ctx, domain.Turn{ID: fmt.Sprintf("id%d", i), SessionKey: key, Role: domain.RoleUser, Content: "x"}))
		}(i)
	}
	wg.Wait()

	assert.NoError(t, s.Ping(ctx))
}
