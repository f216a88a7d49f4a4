package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/intent"
	"github.com/ashureev/campus-assistant/internal/session"
	"github.com/ashureev/campus-assistant/internal/tools"
)

const key = "anon:tab"

type invocation struct {
	call      tools.Call
	principal string
}

type fakeBridge struct {
	mu      sync.Mutex
	calls   []invocation
	respond func(tools.Call) (string, error)
}

func (b *fakeBridge) Invoke(ctx context.Context, call tools.Call) (string, error) {
	p, _ := tools.PrincipalFromContext(ctx)
	b.mu.Lock()
	b.calls = append(b.calls, invocation{call: call, principal: p})
	respond := b.respond
	b.mu.Unlock()
	if respond == nil {
		return "ok", nil
	}
	return respond(call)
}

func (b *fakeBridge) Calls() []invocation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]invocation(nil), b.calls...)
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, id string) (tools.Principal, error) {
	if id == "999" {
		return tools.Principal{}, fmt.Errorf("%w: %s", tools.ErrInvalidCredentials, id)
	}
	return tools.Principal{UserID: id, DisplayName: "Aluno " + id}, nil
}

type fakeClassifier struct{ out string }

func (c fakeClassifier) Classify(context.Context, string) (string, error) {
	if c.out == "" {
		return "", errors.New("offline")
	}
	return c.out, nil
}

type memTranscript struct {
	mu    sync.Mutex
	turns []domain.Turn
}

func (m *memTranscript) AppendTurn(_ context.Context, t domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return nil
}

type harness struct {
	o          *Orchestrator
	bridge     *fakeBridge
	transcript *memTranscript
}

func newHarness(t *testing.T, classifier string) *harness {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC) }
	cfg := intent.ResolverConfig{Now: now}
	if classifier != "" {
		cfg.Classifier = fakeClassifier{out: classifier}
	}
	h := &harness{bridge: &fakeBridge{}, transcript: &memTranscript{}}
	o, err := New(Config{
		Resolver:      intent.NewResolver(cfg),
		Bridge:        h.bridge,
		Authenticator: fakeAuth{},
		Sessions:      session.NewManager(session.Config{Now: now}),
		Transcript:    h.transcript,
		ToolTimeout:   time.Second,
		PortalURL:     "http://localhost:5000/portal",
		Now:           now,
	})
	require.NoError(t, err)
	h.o = o
	return h
}

func (h *harness) turn(t *testing.T, text string) Reply {
	t.Helper()
	r, err := h.o.Turn(context.Background(), key, text)
	require.NoError(t, err)
	return r
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	r, err := h.o.Login(context.Background(), key, "2023001")
	require.NoError(t, err)
	require.True(t, r.Authenticated)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestAddSubjectEndToEnd(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	r := h.turn(t, "quero adicionar MAT-102")
	assert.Equal(t, "Posso abrir um requerimento de adicao de materia MAT-102. Quer que eu abra?", r.Text)
	assert.Equal(t, domain.StateAwaitingConfirmation, r.State)
	assert.Empty(t, h.bridge.Calls())

	snap, err := h.o.Session(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, domain.PendingGenericConfirmation, snap.Pending.Kind)
	assert.Equal(t, "um requerimento de adicao de materia MAT-102", snap.Pending.Description)

	r = h.turn(t, "sim")
	assert.Equal(t, domain.StateIdle, r.State)
	assert.Equal(t, tools.CreateRequirement, r.Tool)

	want := []invocation{{
		call:      tools.NewCall(tools.CreateRequirement, map[string]any{tools.ArgType: tools.ReqAddSubject, tools.ArgCode: "MAT-102"}),
		principal: "2023001",
	}}
	if diff := cmp.Diff(want, h.bridge.Calls(), cmp.AllowUnexported(invocation{})); diff != "" {
		t.Errorf("dispatched calls mismatch (-want +got):\n%s", diff)
	}
}

func TestExplicitCodeDispatchesImmediately(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	r := h.turn(t, "ALG-101")
	assert.Equal(t, domain.StateIdle, r.State)
	calls := h.bridge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ALG-101", calls[0].call.Arg(tools.ArgCode))
}

func TestAnonymousPrivateQueryGetsLoginPrompt(t *testing.T) {
	h := newHarness(t, "")

	r := h.turn(t, "minhas notas")
	assert.Contains(t, r.Text, "Para consultar suas notas, você precisa fazer login primeiro.")
	assert.Empty(t, r.Tool)
	assert.Empty(t, h.bridge.Calls())
}

func TestAnonymousAttendanceIsGated(t *testing.T) {
	h := newHarness(t, "")

	r := h.turn(t, "minha frequência")
	assert.Equal(t, intent.SourceGate, r.Source)
	assert.Contains(t, r.Text, "/login")
	assert.Empty(t, h.bridge.Calls())
}

func TestConfessionFromInferenceNeedsConsent(t *testing.T) {
	h := newHarness(t, `{"acao":"ferramenta","ferramenta":"criar_requerimento","argumentos":{"tipo":"trancamento"}}`)
	h.login(t)

	r := h.turn(t, "eu preciso sair por uns meses")
	assert.Equal(t, "Posso abrir um requerimento de trancamento. Quer que eu abra?", r.Text)
	assert.Equal(t, domain.StateAwaitingConfirmation, r.State)
	assert.Empty(t, h.bridge.Calls())

	r = h.turn(t, "sim")
	assert.Equal(t, domain.StateIdle, r.State)
	calls := h.bridge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, tools.ReqLock, calls[0].call.Arg(tools.ArgType))
}

func TestPendingDeclined(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	h.turn(t, "quero adicionar MAT-102")
	r := h.turn(t, "não quero")
	assert.Equal(t, "Tudo bem. Se precisar de algo, estou aqui.", r.Text)
	assert.Equal(t, domain.StateIdle, r.State)
	assert.Empty(t, h.bridge.Calls())
}

func TestPendingSupersededByNewRequest(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	h.turn(t, "quero adicionar MAT-102")
	r := h.turn(t, "minhas notas")
	assert.Equal(t, domain.StateIdle, r.State)
	calls := h.bridge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, tools.StudentQuery, calls[0].call.Name)
	assert.Equal(t, "minhas notas", calls[0].call.Arg(tools.ArgQuestion))
}

func TestServiceNeedWithEnrichment(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(tools.Call) (string, error) {
		return "Requerimento criado com sucesso! Protocolo 42.", nil
	}
	h.login(t)

	r := h.turn(t, "preciso de declaração de frequência")
	assert.Equal(t, "Vou gerar uma declaração de frequencia para você. Confirme: Sim ou Não?\n\nResponda: Sim ou Não", r.Text)
	assert.Equal(t, domain.StateAwaitingConfirmation, r.State)

	r = h.turn(t, "pode fazer")
	assert.Contains(t, r.Text, "Requerimento criado com sucesso! Protocolo 42.")
	assert.Contains(t, r.Text, "**Seu documento está pronto!**")
	assert.Contains(t, r.Text, "**Acompanhe seu requerimento:**")
	assert.Contains(t, r.Text, "http://localhost:5000/portal")

	calls := h.bridge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "attendance", calls[0].call.Arg(tools.ArgDeclaration))
}

func TestServiceNeedAnonymousGetsLoginPrompt(t *testing.T) {
	h := newHarness(t, "")

	r := h.turn(t, "eu quero trancar o curso")
	assert.Contains(t, r.Text, "/login")
	assert.Equal(t, domain.StateIdle, r.State)
}

func TestSubjectInterestNotTaking(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(call tools.Call) (string, error) {
		if call.Name == tools.StudentQuery {
			return "Não, você não está cursando ALG-101.", nil
		}
		return "Requerimento criado.", nil
	}
	h.login(t)

	r := h.turn(t, "adorei a matéria ALG-101")
	assert.Contains(t, r.Text, "Gostaria de adicionar ALG-101")
	assert.Equal(t, domain.StateAwaitingConfirmation, r.State)

	r = h.turn(t, "sim")
	assert.Equal(t, "Perfeito! Vou abrir um requerimento para adicionar ALG-101 à sua grade.\n\nRequerimento criado.", r.Text)

	calls := h.bridge.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "estou cursando ALG-101", calls[0].call.Arg(tools.ArgQuestion))
	assert.Equal(t, tools.ReqAddSubject, calls[1].call.Arg(tools.ArgType))
}

func TestSubjectInterestAlreadyTaking(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(tools.Call) (string, error) { return "Sim, você está cursando ALG-101.", nil }
	h.login(t)

	r := h.turn(t, "adorei a matéria ALG-101")
	assert.Contains(t, r.Text, "Você já está cursando ALG-101")
	assert.Equal(t, domain.StateIdle, r.State)
}

func TestRegistrationWizard(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(tools.Call) (string, error) { return "Aluno cadastrado com sucesso! ID: 77", nil }

	r := h.turn(t, "quero me cadastrar")
	assert.Equal(t, domain.StateCollectingRegistration, r.State)
	assert.Contains(t, r.Text, "Cadastro de Novo Aluno")

	r = h.turn(t, "talvez")
	assert.Equal(t, msgWizardReprompt, r.Text)

	r = h.turn(t, "sim")
	assert.Equal(t, "**Campo 1/9**\n\nQual é o seu nome completo?", r.Text)

	steps := []struct {
		reply  string
		prompt string
	}{
		{"Maria Souza", "**Campo 2/9**"},
		{"123", "**Campo 2/9**"},
		{"123.456.789-01", "**Campo 3/9**"},
		{"31/13/2020", "**Campo 3/9**"},
		{"15/03/01", "**Campo 4/9**"},
		{"Maria@Email.com", "**Campo 5/9** (opcional)"},
		{"pular", "**Campo 6/9** (opcional)"},
		{"-", "**Campo 7/9** (opcional)"},
		{"sp", "**Campo 8/9**"},
		{"pular", "**Campo 8/9**"},
		{"abcd", "**Campo 9/9** (opcional)"},
	}
	for _, s := range steps {
		r = h.turn(t, s.reply)
		assert.Contains(t, r.Text, s.prompt, "after %q", s.reply)
		assert.Equal(t, domain.StateCollectingRegistration, r.State)
	}
	assert.Empty(t, h.bridge.Calls())

	r = h.turn(t, "BCC")
	assert.Equal(t, "Aluno cadastrado com sucesso! ID: 77", r.Text)
	assert.Equal(t, domain.StateIdle, r.State)

	calls := h.bridge.Calls()
	require.Len(t, calls, 1)
	want := tools.NewCall(tools.RegisterStudent, map[string]any{
		"nome_completo":   "Maria Souza",
		"cpf":             "123.456.789-01",
		"data_nascimento": "2001-03-15",
		"email":           "maria@email.com",
		"estado":          "SP",
		"senha":           "abcd",
		"curso_codigo":    "BCC",
	})
	if diff := cmp.Diff(want, calls[0].call); diff != "" {
		t.Errorf("register call mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistrationWizardDeclined(t *testing.T) {
	h := newHarness(t, "")
	h.turn(t, "quero me cadastrar")
	r := h.turn(t, "não")
	assert.Equal(t, msgWizardDeclined, r.Text)
	assert.Equal(t, domain.StateIdle, r.State)
}

func TestToolFailures(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(call tools.Call) (string, error) {
		if call.Name == tools.ListCourses {
			return "", fmt.Errorf("%w: connection refused", tools.ErrUnavailable)
		}
		return "", fmt.Errorf("%w: boom", tools.ErrExecution)
	}

	r := h.turn(t, "quais cursos tem?")
	assert.True(t, strings.HasPrefix(r.Text, msgCoursesUnavailable), r.Text)

	r = h.turn(t, "adicionar matéria")
	assert.Contains(t, r.Text, "/login")

	h.login(t)
	r = h.turn(t, "adicionar matéria")
	assert.True(t, strings.HasPrefix(r.Text, msgExecutionFailed), r.Text)
}

func TestPanicIsRecovered(t *testing.T) {
	h := newHarness(t, "")
	h.bridge.respond = func(tools.Call) (string, error) { panic("backend exploded") }

	r := h.turn(t, "quais cursos tem?")
	assert.Equal(t, msgInternalError, r.Text)

	h.bridge.respond = nil
	r = h.turn(t, "quais cursos tem?")
	assert.True(t, strings.HasPrefix(r.Text, "ok"), r.Text)
}

func TestOpportunitiesAppended(t *testing.T) {
	h := newHarness(t, "")
	r := h.turn(t, "a matéria de cálculo está muito difícil")
	assert.Contains(t, r.Text, "**Oportunidades e Próximas Ações:**")
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	_, err := h.o.Login(ctx, key, "999")
	assert.ErrorIs(t, err, tools.ErrInvalidCredentials)

	r, err := h.o.Login(ctx, key, "2023001")
	require.NoError(t, err)
	assert.Equal(t, "Login realizado com sucesso! Bem-vindo(a), Aluno 2023001.", r.Text)

	h.turn(t, "quero adicionar MAT-102")
	r, err = h.o.Logout(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, msgLoggedOut, r.Text)
	assert.Equal(t, domain.StateIdle, r.State)
	assert.False(t, r.Authenticated)
}

func TestTranscriptRecorded(t *testing.T) {
	h := newHarness(t, "")
	h.turn(t, "boa noite")

	require.Len(t, h.transcript.turns, 2)
	assert.Equal(t, domain.RoleUser, h.transcript.turns[0].Role)
	assert.Equal(t, "boa noite", h.transcript.turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, h.transcript.turns[1].Role)
	assert.Equal(t, string(intent.SourceCascade), h.transcript.turns[1].Source)
}

func TestResetForgetsSession(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)
	require.NoError(t, h.o.Reset(context.Background(), key))

	snap, err := h.o.Session(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, snap.Authenticated())
}
