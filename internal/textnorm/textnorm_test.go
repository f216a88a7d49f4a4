package textnorm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Matrícula":             "matricula",
		"  DECLARAÇÃO  ":        "declaracao",
		"Não quero":             "nao quero",
		"situação acadêmica":    "situacao academica",
		"já está tudo bem, né?": "ja esta tudo bem, ne?",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), "Fold(%q)", in)
	}
}

func TestHasWord(t *testing.T) {
	assert.True(t, HasWord("nao quero", "quero"))
	assert.True(t, HasWord("sim", "sim"))
	assert.True(t, HasWord("ok, pode abrir", "ok"))
	assert.False(t, HasWord("simples", "sim"))
	assert.False(t, HasWord("okay", "ok"))
	assert.False(t, HasWord("desistir", "sim"))
	assert.True(t, HasWord("ta bom. sim!", "sim"))
	assert.False(t, HasWord("", "sim"))
	assert.False(t, HasWord("sim", ""))
}

func TestHasWordSecondOccurrence(t *testing.T) {
	assert.True(t, HasWord("simsim sim", "sim"))
}

func TestHasWordLongInput(t *testing.T) {
	text := strings.Repeat("xsim", 1<<18)
	start := time.Now()
	assert.False(t, HasWord(text, "sim"))
	assert.True(t, HasWord(text+" sim", "sim"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHasWordMultibyteBoundary(t *testing.T) {
	assert.False(t, HasWord("ésim", "sim"))
	assert.True(t, HasWord("é sim", "sim"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("minhas notas", []string{"nota"}))
	assert.False(t, ContainsAny("minhas faltas", []string{"nota", ""}))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "12345678901", Digits("123.456.789-01"))
	assert.Equal(t, "11987654321", Digits("(11) 98765-4321"))
}

func TestFoldAll(t *testing.T) {
	assert.Equal(t, []string{"materia", "cadeira"}, FoldAll([]string{"Matéria", " ", "Cadeira"}))
}
