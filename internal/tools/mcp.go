package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/campus-assistant/internal/textnorm"
	"github.com/google/uuid"
)

var errRPCNotFound = errors.New("remote tool not found")

// MCPClient calls the academic backend over JSON-RPC 2.0 (tools/list,
// tools/call) and implements Bridge and Authenticator.
type MCPClient struct {
	endpoint string
	http     *http.Client
	registry *Registry
	logger   *slog.Logger
}

// MCPClientConfig holds configuration for the backend client.
type MCPClientConfig struct {
	Endpoint string
	// Timeout bounds a whole HTTP exchange. Callers should also pass a
	// context deadline.
	Timeout time.Duration
}

// DefaultMCPClientConfig returns default configuration.
func DefaultMCPClientConfig() MCPClientConfig {
	return MCPClientConfig{
		Endpoint: "http://localhost:8000",
		Timeout:  30 * time.Second,
	}
}

// NewMCPClient creates a backend client. No network I/O happens here.
func NewMCPClient(cfg MCPClientConfig, registry *Registry, logger *slog.Logger) *MCPClient {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	def := DefaultMCPClientConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &MCPClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		registry: registry,
		logger:   logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type callResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

// RemoteTool is one entry of the backend's tools/list answer.
type RemoteTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Invoke executes call on the backend and returns its text result.
func (c *MCPClient) Invoke(ctx context.Context, call Call) (string, error) {
	if err := c.registry.Validate(call); err != nil {
		return "", err
	}
	d, _ := c.registry.Lookup(call.Name)
	name, args := c.registry.ToWire(call)

	if d.Visibility == Private {
		userID, ok := PrincipalFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnauthenticated, d.Name)
		}
		args["aluno_id"] = studentIDValue(userID)
	}

	raw, err := c.rpc(ctx, "tools/call", map[string]any{"name": name, "arguments": args})
	if err != nil {
		if errors.Is(err, errRPCNotFound) {
			return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, d.Name, err)
		}
		return "", err
	}

	text, isError := decodeResult(raw)
	if isError {
		return "", fmt.Errorf("%w: %s: %s", ErrExecution, d.Name, text)
	}
	c.logger.Debug("Tool call completed", "tool", d.Name, "wire_name", name, "bytes", len(text))
	return text, nil
}

// ListTools returns the backend's tool catalogue.
func (c *MCPClient) ListTools(ctx context.Context) ([]RemoteTool, error) {
	raw, err := c.rpc(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Tools []RemoteTool `json:"tools"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode tools/list: %v", ErrExecution, err)
	}
	return out.Tools, nil
}

// Ping checks that the backend answers tools/list.
func (c *MCPClient) Ping(ctx context.Context) error {
	_, err := c.ListTools(ctx)
	return err
}

var displayNamePattern = regexp.MustCompile(`Nome:?\s*([^\n]+)`)

// Login verifies studentID by fetching the student's profile.
func (c *MCPClient) Login(ctx context.Context, studentID string) (Principal, error) {
	id := strings.TrimSpace(studentID)
	if id == "" || textnorm.Digits(id) != id {
		return Principal{}, fmt.Errorf("%w: student id must be numeric", ErrInvalidCredentials)
	}

	text, err := c.Invoke(WithPrincipal(ctx, id), Call{Name: StudentProfile})
	if err != nil {
		if errors.Is(err, ErrExecution) && strings.Contains(textnorm.Fold(err.Error()), "nao encontrado") {
			return Principal{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, id)
		}
		return Principal{}, err
	}
	if strings.Contains(textnorm.Fold(text), "nao encontrado") {
		return Principal{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, id)
	}

	name := "Aluno " + id
	if m := displayNamePattern.FindStringSubmatch(text); m != nil {
		name = strings.TrimSpace(strings.Trim(m[1], "*"))
	}
	return Principal{UserID: id, DisplayName: name}, nil
}

func (c *MCPClient) rpc(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close backend response body", "error", closeErr)
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrUnavailable, method, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrUnavailable, method, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrExecution, method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.Unmarshal(payload, &rr); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %v", ErrExecution, method, err)
	}
	if rr.Error != nil {
		msg := textnorm.Fold(rr.Error.Message)
		if strings.Contains(msg, "not found") || strings.Contains(msg, "nao encontrada") {
			return nil, fmt.Errorf("%w: %s", errRPCNotFound, rr.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrExecution, rr.Error.Message)
	}
	return rr.Result, nil
}

func decodeResult(raw json.RawMessage) (string, bool) {
	var cr callResult
	if err := json.Unmarshal(raw, &cr); err == nil && len(cr.Content) > 0 {
		return cr.Content[0].Text, cr.IsError
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, false
	}
	return string(raw), false
}

// studentIDValue sends numeric IDs as numbers, which the backend expects.
func studentIDValue(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
