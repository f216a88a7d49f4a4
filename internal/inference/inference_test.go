package inference

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/campus-assistant/internal/tools"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Decision
		wantErr bool
	}{
		{
			name: "plain tool decision",
			raw:  `{"acao": "ferramenta", "ferramenta": "list-courses", "argumentos": {}}`,
			want: Decision{Action: ActionTool, Tool: "list-courses", Arguments: map[string]any{}},
		},
		{
			name: "reply wrapped in prose",
			raw:  "Claro! Aqui está:\n```json\n{\"acao\": \"conversa\", \"resposta\": \"Paris {capital}\"}\n```",
			want: Decision{Action: ActionReply, Reply: "Paris {capital}"},
		},
		{
			name: "action is case folded",
			raw:  `{"acao": " Ferramenta ", "ferramenta": "diagnose"}`,
			want: Decision{Action: ActionTool, Tool: "diagnose"},
		},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no object", raw: "não sei", wantErr: true},
		{name: "unbalanced", raw: `{"acao": "conversa"`, wantErr: true},
		{name: "tool without name", raw: `{"acao": "ferramenta"}`, wantErr: true},
		{name: "unknown action", raw: `{"acao": "dançar"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObjectIgnoresBracesInStrings(t *testing.T) {
	got, ok := ExtractObject(`lixo {"a": "}\"{", "b": {"c": 1}} resto }`)
	require.True(t, ok)
	assert.Equal(t, `{"a": "}\"{", "b": {"c": 1}}`, got)
}

func TestBuildPrompt(t *testing.T) {
	reg := tools.DefaultRegistry()

	p := BuildPrompt("quero trancar", reg, false)
	assert.Contains(t, p, "NÃO LOGADO")
	assert.Contains(t, p, "create-requirement")
	assert.Contains(t, p, "Mensagem: quero trancar")
	assert.True(t, strings.HasSuffix(p, "Resposta JSON:"))

	p = BuildPrompt("oi", reg, true)
	assert.Contains(t, p, "USUÁRIO ATUAL: LOGADO")
}

func startClassifier(t *testing.T, handle func(prompt string) (string, error)) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		if method != classifyMethod {
			return status.Errorf(codes.Unimplemented, "unknown method %s", method)
		}
		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		text, err := handle(req.GetFields()["prompt"].GetStringValue())
		if err != nil {
			return err
		}
		resp, _ := structpb.NewStruct(map[string]any{"text": text})
		return stream.SendMsg(resp)
	}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestGrpcClientClassify(t *testing.T) {
	addr := startClassifier(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "falha") {
			return "", status.Error(codes.Unavailable, "modelo fora do ar")
		}
		return `{"acao": "conversa", "resposta": "ok"}`, nil
	})

	c, err := NewGrpcClient(GrpcClientConfig{Address: addr, ConnectTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := c.Classify(ctx, "Mensagem: oi")
	require.NoError(t, err)
	d, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "ok", d.Reply)

	_, err = c.Classify(ctx, "Mensagem: falha")
	assert.True(t, errors.Is(err, ErrUnreachable), "got %v", err)
}

func TestNewGrpcClientNotReady(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	_, err = NewGrpcClient(GrpcClientConfig{Address: addr, ConnectTimeout: 300 * time.Millisecond}, nil)
	assert.Error(t, err)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "")
	assert.Error(t, err)
}
