package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/campus-assistant/internal/config"
	"github.com/ashureev/campus-assistant/internal/dialogue"
	"github.com/ashureev/campus-assistant/internal/tools"
)

const cliSessionKey = "cli:default"

// chatSession is the subset of the orchestrator the REPL drives.
type chatSession interface {
	Turn(ctx context.Context, key, text string) (dialogue.Reply, error)
	Login(ctx context.Context, key, studentID string) (dialogue.Reply, error)
	Logout(ctx context.Context, key string) (dialogue.Reply, error)
	Reset(ctx context.Context, key string) error
}

// NewChatCommand creates the interactive chat command.
func NewChatCommand(_ *RootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant on the terminal",
		Long: `Chat with the assistant on the terminal.

Commands: /login <student id>, /logout, /reset. Type "sair" to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(cmd.Context(), a.orch, key, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&key, "session", cliSessionKey, "conversation key, reused across runs")
	return cmd
}

func runChat(ctx context.Context, chat chatSession, key string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Assistente Acadêmico. Digite /login <ID> para entrar ou 'sair' para encerrar.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		text, quit, err := chatLine(ctx, chat, key, line)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Fprintln(out, text)
		}
		if quit {
			return nil
		}
	}
}

func chatLine(ctx context.Context, chat chatSession, key, line string) (string, bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "sair", "exit", "quit":
		return "Até logo!", true, nil
	case "/login":
		reply, err := chat.Login(ctx, key, arg)
		switch {
		case errors.Is(err, tools.ErrInvalidCredentials):
			return "ID de aluno não encontrado.", false, nil
		case errors.Is(err, tools.ErrUnavailable):
			return "Serviço de login indisponível. Tente novamente em instantes.", false, nil
		case err != nil:
			return "", false, err
		}
		return reply.Text, false, nil
	case "/logout":
		reply, err := chat.Logout(ctx, key)
		return reply.Text, false, err
	case "/reset":
		if err := chat.Reset(ctx, key); err != nil {
			return "", false, err
		}
		return "Conversa reiniciada.", false, nil
	}
	reply, err := chat.Turn(ctx, key, line)
	return reply.Text, false, err
}
