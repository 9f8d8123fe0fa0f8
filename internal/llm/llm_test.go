package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/dm-planner/internal/config"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go:\n{\"a\":{\"b\":2}}\nThanks", `{"a":{"b":2}}`},
		{"no object", "sorry, I can't", "sorry, I can't"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestNewProviderSelection(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "none"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), config.LLMConfig{Provider: "palm"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := New(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 0.2, req.Temperature)
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
		}

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":" {\"ok\":true} "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(config.LLMConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/"}, srv.Client())
	out, err := c.Complete(context.Background(), Request{System: "sys", Prompt: "hi", Temperature: 0.2, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewOpenAI(config.LLMConfig{APIKey: "bad", BaseURL: srv.URL}, srv.Client())
	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(config.LLMConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

type fakeBedrock struct {
	gotModel string
	gotBody  bedrockRequest
	body     string
	err      error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.gotModel = aws.ToString(in.ModelId)
	if err := json.Unmarshal(in.Body, &f.gotBody); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockComplete(t *testing.T) {
	api := &fakeBedrock{body: `{"content":[{"type":"text","text":"{\"stores\":"},{"type":"text","text":"[]}"}],"stop_reason":"end_turn"}`}
	b := NewBedrockWithAPI(api, "anthropic.claude-3-sonnet-20240229-v1:0", 0)

	out, err := b.Complete(context.Background(), Request{System: "plan", Prompt: "stores?", Temperature: 0.2, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"stores":[]}`, out)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", api.gotModel)
	assert.Equal(t, anthropicVersion, api.gotBody.AnthropicVersion)
	assert.Equal(t, 2000, api.gotBody.MaxTokens)
	assert.Contains(t, api.gotBody.System, "single JSON object")
	require.Len(t, api.gotBody.Messages, 1)
	assert.Equal(t, "stores?", api.gotBody.Messages[0].Content[0].Text)
}

func TestBedrockErrors(t *testing.T) {
	boom := errors.New("ThrottlingException")
	_, err := NewBedrockWithAPI(&fakeBedrock{err: boom}, "m", 100).Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, boom)

	_, err = NewBedrockWithAPI(&fakeBedrock{body: `{"content":[]}`}, "m", 100).Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
