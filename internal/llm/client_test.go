package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/llm"
	"github.com/sadreammm/Helply/pkg/models"
)

func candidate(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return b
}

func newClient(t *testing.T, h http.HandlerFunc) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := llm.New(llm.Config{
		APIKey:          "k",
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		InitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewDisabled(t *testing.T) {
	_, err := llm.New(llm.Config{})
	assert.ErrorIs(t, err, llm.ErrDisabled)
}

func TestGenerate(t *testing.T) {
	tests := map[string]struct {
		responses []int
		body      string
		expCalls  int32
		expErr    bool
		expMsg    string
	}{
		"Success on first call.": {
			responses: []int{200},
			body:      `{"actions":[{"selector":"#repository-name-input","action_type":"type","message":"Name it"}],"confidence":0.9}`,
			expCalls:  1,
			expMsg:    "Name it",
		},
		"Transient errors are retried.": {
			responses: []int{503, 429, 200},
			body:      "```json\n{\"actions\":[{\"message\":\"Retry worked\"}]}\n```",
			expCalls:  3,
			expMsg:    "Retry worked",
		},
		"Fatal errors are not retried.": {
			responses: []int{400},
			expCalls:  1,
			expErr:    true,
		},
		"Attempts are bounded.": {
			responses: []int{500, 500, 500, 500},
			expCalls:  3,
			expErr:    true,
		},
		"Malformed output is an error.": {
			responses: []int{200},
			body:      "not json at all",
			expCalls:  1,
			expErr:    true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
				assert.Equal(t, "/models/gemini-2.0-flash-lite:generateContent", r.URL.Path)
				status := test.responses[min(int(n), len(test.responses))-1]
				if status != 200 {
					http.Error(w, "nope", status)
					return
				}
				_, _ = w.Write(candidate(test.body))
			})

			g, err := c.Generate(context.Background(), models.GuidanceRequest{TaskTitle: "t", StepNumber: 1, TotalSteps: 2})
			assert.Equal(t, test.expCalls, calls.Load())
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expMsg, g.Actions[0].Message)
		})
	}
}

func TestClarifyIntent(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req["systemInstruction"])
		_, _ = w.Write(candidate(`{"intent":"make a repo","platform":"GitHub","action":"create repository","confidence":1.4}`))
	})

	in, err := c.ClarifyIntent(context.Background(), "I want a place for my code", "https://github.com")
	require.NoError(t, err)
	assert.Equal(t, "GitHub", in.Platform)
	assert.Equal(t, "create repository", in.Action)
	assert.Equal(t, 1.0, in.Confidence)
	assert.Equal(t, "gemini-2.0-flash-lite", c.Model())
}
