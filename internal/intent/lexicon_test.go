package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/campus-assistant/internal/domain"
)

func TestLoadLexiconEmbedded(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Len(t, lex.RegistrationFields, 9)
	assert.Equal(t, "curso_codigo", lex.RegistrationFields[len(lex.RegistrationFields)-1].Key())
	assert.Contains(t, lex.Cascade.Grades, "media", "keywords are folded on load")
	assert.Equal(t,
		"Para consultar suas notas, você precisa fazer login primeiro. Use /login <seu ID de aluno> para entrar.",
		lex.Login("consultar suas notas"))
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, defaultLexicon, 0o600))
	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultLexicon().Services, lex.Services)
}

func TestLoadLexiconMissingFile(t *testing.T) {
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseLexiconInvalid(t *testing.T) {
	_, err := ParseLexicon([]byte("login_prompt: faça login\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{purpose}")
	assert.Contains(t, err.Error(), "registration_fields is empty")
}

func TestParseLexiconBadValidator(t *testing.T) {
	lex := DefaultLexicon()
	lex.RegistrationFields = append(lex.RegistrationFields, domain.FieldSpec{Name: "x", Prompt: "x?", Validator: "shoe-size"})
	assert.ErrorContains(t, lex.Validate(), "unknown validator")
}
