package model

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// serveReply stands up a chat-completions endpoint returning the given
// body and wires an OpenAIClient at it.
func serveReply(t *testing.T, status int, body string) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIClientWithService(openai.NewClientWithConfig(cfg), "test-model")
}

const predictionReply = `{
  "choices": [
    {
      "message": {"role": "assistant", "content": "{\"Group 1\": \"A: Increase x\"}"},
      "logprobs": {
        "content": [
          {"token": "{\"", "logprob": -0.01, "top_logprobs": [{"token": "{\"", "logprob": -0.01}]},
          {"token": "A", "logprob": -0.2, "top_logprobs": [
            {"token": "A", "logprob": -0.2},
            {"token": "B", "logprob": -1.8},
            {"token": "C", "logprob": -3.1},
            {"token": "D", "logprob": -4.0}
          ]},
          {"token": "B", "logprob": -0.4, "top_logprobs": [
            {"token": "B", "logprob": -0.4},
            {"token": "A", "logprob": -1.2}
          ]}
        ]
      }
    }
  ]
}`

func TestPredictExtractsLabelSlots(t *testing.T) {
	client := serveReply(t, http.StatusOK, predictionReply)

	pred, err := client.Predict(context.Background(), []Message{{Role: RoleUser, Content: "decide"}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Text != `{"Group 1": "A: Increase x"}` {
		t.Fatalf("unexpected reply text %q", pred.Text)
	}
	if len(pred.Slots) != 2 {
		t.Fatalf("got %d slots, want 2 (non-label tokens skipped)", len(pred.Slots))
	}
	if got := pred.Slots[0]["A"]; got != -0.2 {
		t.Fatalf("slot 0 label A logprob = %v, want -0.2", got)
	}
	if len(pred.Slots[0]) != 4 || len(pred.Slots[1]) != 2 {
		t.Fatalf("slot sizes = %d/%d, want 4/2", len(pred.Slots[0]), len(pred.Slots[1]))
	}
}

func TestPredictRequiresLogprobs(t *testing.T) {
	client := serveReply(t, http.StatusOK, `{
  "choices": [{"message": {"role": "assistant", "content": "ok"}}]
}`)

	_, err := client.Predict(context.Background(), nil)
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("missing logprobs should be a ServiceError, got %v", err)
	}
}

func TestPredictWrapsTransportFailure(t *testing.T) {
	client := serveReply(t, http.StatusInternalServerError, `{"error": {"message": "boom"}}`)

	_, err := client.Predict(context.Background(), nil)
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("transport failure should be a ServiceError, got %v", err)
	}
}

func TestCompleteReturnsText(t *testing.T) {
	client := serveReply(t, http.StatusOK, `{
  "choices": [{"message": {"role": "assistant", "content": "1. Prefer Increase x."}}]
}`)

	text, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "summarize"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "1. Prefer Increase x." {
		t.Fatalf("got %q", text)
	}
}
