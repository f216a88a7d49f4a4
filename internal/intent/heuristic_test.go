package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespond(t *testing.T) {
	r := NewResponder(DefaultLexicon(), fixedNow)
	tests := []struct {
		text string
		want string
	}{
		{"como vai?", "Estou ótimo, obrigado por perguntar! E você, como está? Posso ajudá-lo em algo?"},
		{"tudo bem?", "Tudo certo! E com você? Como posso ajudá-lo?"},
		{"você é legal, assistente", "Obrigado! Fico feliz em ajudar. Meu objetivo é tornar sua vida acadêmica mais fácil e confortável!"},
		{"que dia é hoje?", "Agora são 14:05 em 18/10/2026."},
		{"calcular 100 / 8", "Deixe-me calcular: 100 / 8 = 12.5"},
		{"quanto é 17 % 5?", "Deixe-me calcular: 17 % 5 = 2"},
		{"calcula 2 ** 10", "Deixe-me calcular: 2 ** 10 = 1024"},
		{"calcular (2 + 3) * 4", "Deixe-me calcular: (2 + 3) * 4 = 20"},
		{"calcular 1.5 * 2", "Deixe-me calcular: 1.5 * 2 = 3.0"},
		{"gosto de python", "Python é uma linguagem de programação muito popular! É usada em ciência de dados, web, automação e muito mais. Você está estudando programação?"},
		{"até logo", "Até logo! Volte sempre que precisar de ajuda!"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Respond(NewInput(tt.text, false)))
		})
	}
}

func TestRespondIdentity(t *testing.T) {
	r := NewResponder(DefaultLexicon(), fixedNow)
	assert.Contains(t, r.Respond(NewInput("quem é você?", false)), "assistente acadêmico")
}

func TestRespondDivisionByZeroFallsThrough(t *testing.T) {
	lex := DefaultLexicon()
	r := NewResponder(lex, fixedNow)
	got := r.Respond(NewInput("calcular 1 / 0", false))
	assert.NotContains(t, got, "Deixe-me calcular")
	assert.Contains(t, lex.Heuristic.StatementReplies, got)
}

func TestRespondDeterministic(t *testing.T) {
	r := NewResponder(DefaultLexicon(), fixedNow)
	in := NewInput("hoje choveu bastante", false)
	assert.Equal(t, r.Respond(in), r.Respond(in))
}

func TestPickEmpty(t *testing.T) {
	assert.Empty(t, pick(nil, "x"))
}
