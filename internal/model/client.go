// Package model talks to the language-model service. The decision
// engine depends on the Client interface only; the OpenAI
// implementation is wired in at startup.
package model

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// #region types

// Message is one role-tagged instructional segment of a request.
type Message struct {
	Role    string
	Content string
}

// Roles understood by the service.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// LabelLogprobs maps candidate labels (A–D) to log-probabilities for
// one categorical answer slot.
type LabelLogprobs map[string]float64

// Prediction is a reply to a prediction request: the raw text plus,
// for each label token emitted, the top alternatives in reply order.
type Prediction struct {
	Text  string
	Slots []LabelLogprobs
}

// #endregion types

// #region errors

// ServiceError reports that the model call itself failed. It is never
// retried by the validator; the decision cycle aborts.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("model service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// #endregion errors

// #region client-interface

// Client is the model-service surface the controller consumes.
type Client interface {
	// Predict submits a prediction conversation and returns the reply
	// with per-label alternatives.
	Predict(ctx context.Context, messages []Message) (Prediction, error)
	// Complete submits a plain conversation (used for distillation)
	// and returns the reply text.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// #endregion client-interface

// #region openai-client

// topAlternatives is how many alternative labels are requested per
// answer token.
const topAlternatives = 4

var labelTokens = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// OpenAIClient implements Client against the OpenAI chat completions
// API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for the given model name.
func NewOpenAIClient(apiKey, modelName string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}
}

// NewOpenAIClientWithService creates a client against an injected
// go-openai client, used for pointing at compatible local services.
func NewOpenAIClientWithService(c *openai.Client, modelName string) *OpenAIClient {
	return &OpenAIClient{client: c, model: modelName}
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// Predict implements Client. Sampling is pinned to temperature zero so
// the label logprobs reflect the model's ranking, not sampling noise.
func (c *OpenAIClient) Predict(ctx context.Context, messages []Message) (Prediction, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
		// omitempty on Temperature drops a literal 0; the smallest
		// nonzero float is the conventional stand-in.
		Temperature: math.SmallestNonzeroFloat32,
		LogProbs:    true,
		TopLogProbs: topAlternatives,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Prediction{}, &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return Prediction{}, &ServiceError{Err: fmt.Errorf("no choices returned")}
	}

	choice := resp.Choices[0]
	pred := Prediction{Text: choice.Message.Content}
	if choice.LogProbs == nil {
		return Prediction{}, &ServiceError{Err: fmt.Errorf("no logprobs returned")}
	}
	for _, tok := range choice.LogProbs.Content {
		if !labelTokens[tok.Token] || len(tok.TopLogProbs) == 0 {
			continue
		}
		slot := make(LabelLogprobs, topAlternatives)
		for i, alt := range tok.TopLogProbs {
			if i >= topAlternatives {
				break
			}
			slot[alt.Token] = alt.LogProb
		}
		pred.Slots = append(pred.Slots, slot)
	}
	return pred, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: math.SmallestNonzeroFloat32,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// #endregion openai-client
