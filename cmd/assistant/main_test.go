package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/campus-assistant/internal/dialogue"
	"github.com/ashureev/campus-assistant/internal/tools"
)

type scriptedChat struct {
	turns  []string
	logins []string
	resets int
}

func (s *scriptedChat) Turn(_ context.Context, _, text string) (dialogue.Reply, error) {
	s.turns = append(s.turns, text)
	return dialogue.Reply{Text: "eco: " + text}, nil
}

func (s *scriptedChat) Login(_ context.Context, _, id string) (dialogue.Reply, error) {
	s.logins = append(s.logins, id)
	if id == "" {
		return dialogue.Reply{}, tools.ErrInvalidCredentials
	}
	return dialogue.Reply{Text: "bem-vindo " + id}, nil
}

func (s *scriptedChat) Logout(context.Context, string) (dialogue.Reply, error) {
	return dialogue.Reply{Text: "saiu"}, nil
}

func (s *scriptedChat) Reset(context.Context, string) error {
	s.resets++
	return nil
}

func TestRunChat(t *testing.T) {
	chat := &scriptedChat{}
	in := strings.NewReader("oi\n\n/login 2023001\n/login\nminhas notas\n/logout\n/reset\nsair\nnão lido\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), chat, cliSessionKey, in, &out))

	assert.Equal(t, []string{"oi", "minhas notas"}, chat.turns)
	assert.Equal(t, []string{"2023001", ""}, chat.logins)
	assert.Equal(t, 1, chat.resets)

	got := out.String()
	assert.Contains(t, got, "eco: oi")
	assert.Contains(t, got, "bem-vindo 2023001")
	assert.Contains(t, got, "ID de aluno não encontrado.")
	assert.Contains(t, got, "Conversa reiniciada.")
	assert.Contains(t, got, "Até logo!")
	assert.NotContains(t, got, "não lido")
}

func TestRunChatEOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), &scriptedChat{}, cliSessionKey, strings.NewReader("oi"), &out))
	assert.Contains(t, out.String(), "eco: oi")
}

func TestEvalCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "(2", "+", "3)", "*", "4"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "20\n", out.String())
}

func TestEvalCommandRejectsCode(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "__import__('os')"})
	assert.Error(t, cmd.Execute())
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, &RootOptions{LogLevel: "debug", LogFormat: "text"})
	assert.NoError(t, err)
	_, err = newLogger(&bytes.Buffer{}, &RootOptions{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
	_, err = newLogger(&bytes.Buffer{}, &RootOptions{LogLevel: "info", LogFormat: "xml"})
	assert.Error(t, err)
}
