package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/llm"
	"github.com/ilkoid/poncho-slides/pkg/tools"
)

// newTestServer отвечает заранее заданным сообщением и сохраняет запрос.
func newTestServer(t *testing.T, reply openai.ChatCompletionMessage, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:      "cmpl-1",
			Object:  "chat.completion",
			Model:   got.Model,
			Choices: []openai.ChatCompletionChoice{{Index: 0, Message: reply, FinishReason: openai.FinishReasonStop}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	client := NewClient(config.ModelDef{APIKey: "k", ModelName: "glm-4", BaseURL: "https://api.z.ai/v4", Temperature: 0.3, MaxTokens: 500})
	require.NotNil(t, client.api)
	assert.Equal(t, llm.GenerateOptions{Model: "glm-4", Temperature: 0.3, MaxTokens: 500}, client.defaults)
}

func TestGenerate_WithTools(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       "call_1",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: "search_image", Arguments: `{"query":"sea"}`},
		}},
	}, &got)

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "gpt-4o-mini", BaseURL: srv.URL + "/v1", MaxTokens: 256})
	defs := []tools.ToolDefinition{{
		Name:        "search_image",
		Description: "find",
		Parameters:  tools.JSONSchema{"type": "object", "properties": map[string]any{}},
	}}

	msg, err := client.Generate(context.Background(),
		[]llm.Message{llm.System("sys"), llm.User("make slides")},
		defs, llm.WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, llm.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, llm.ToolCall{ID: "call_1", Name: "search_image", Args: `{"query":"sea"}`}, msg.ToolCalls[0])

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "search_image", got.Tools[0].Function.Name)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestGenerate_JSONFormat(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, openai.ChatCompletionMessage{Role: "assistant", Content: `{"ok":true}`}, &got)

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "m", BaseURL: srv.URL + "/v1"})
	msg, err := client.Generate(context.Background(), []llm.Message{llm.User("x")}, llm.WithFormat("json_object"))
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, msg.Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
	assert.Empty(t, got.Tools)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "m", BaseURL: srv.URL + "/v1"})
	_, err := client.Generate(context.Background(), []llm.Message{llm.User("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api error")
}

func TestGenerate_InvalidOption(t *testing.T) {
	client := NewClient(config.ModelDef{APIKey: "test-key", ModelName: "m"})
	_, err := client.Generate(context.Background(), []llm.Message{llm.User("x")}, "invalid type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option type")
}

func TestMapToOpenAI(t *testing.T) {
	msg := mapToOpenAI(llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "c1", Name: "t", Args: "{}"}},
	})
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, openai.ToolTypeFunction, msg.ToolCalls[0].Type)
	assert.Equal(t, "t", msg.ToolCalls[0].Function.Name)

	msg = mapToOpenAI(llm.ToolResult("c1", `{"found":false}`))
	assert.Equal(t, "tool", msg.Role)
	assert.Equal(t, "c1", msg.ToolCallID)
	assert.Equal(t, `{"found":false}`, msg.Content)

	msg = mapToOpenAI(llm.Message{Role: llm.RoleUser, Content: "what is this?", Images: []string{"http://img"}})
	assert.Empty(t, msg.Content)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, "http://img", msg.MultiContent[1].ImageURL.URL)
}
