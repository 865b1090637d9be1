// Package llm backs the safety classifier and the catalog assistant with
// OpenAI-compatible chat completions.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"prompthub/services/library-api/internal/domain/safety"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

const safetySystemPrompt = "You are a specialized AI safety officer for a corporate prompt library. " +
	"Analyze the provided prompt content for: 1. PII (emails, names, phone numbers), 2. Secrets (API keys, passwords), " +
	"3. Internal company data, 4. Inappropriate content. Return a JSON object with 'safe' (boolean), " +
	"'issues' (array of strings), and 'suggestedTags' (array of 3-5 keywords)."

const assistantSystemPrompt = "You are a helpful assistant for a Prompt Library. A user is looking for a specific type of prompt. " +
	"Analyze their request and the list of available prompts. Return a JSON object with: " +
	"1. 'answer' (a helpful sentence explaining your recommendation), " +
	"2. 'recommendedIds' (array of IDs from the context that match best), " +
	"3. 'suggestedSearch' (a simpler search keyword if no exact match is found)."

// Client talks to an OpenAI-compatible completion endpoint. It implements
// both safety.Classifier and safety.Assistant.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// NewClient builds a Client against the given endpoint. An empty baseURL
// targets the OpenAI public API.
func NewClient(apiKey, baseURL, model string, log zerolog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
		log:   log.With().Str("component", "llm-client").Logger(),
	}
}

// SafetyCheck screens a prompt submission and returns the verdict.
func (c *Client) SafetyCheck(ctx context.Context, title, useCase, prompt string) (*safety.Result, error) {
	payload, err := json.Marshal(map[string]string{
		"title":    title,
		"use_case": useCase,
		"prompt":   prompt,
	})
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"marshal safety payload", err, "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d")
	}

	var result safety.Result
	if err := c.completeJSON(ctx, safetySystemPrompt, string(payload), &result); err != nil {
		return nil, err
	}
	c.log.Debug().Bool("safe", result.Safe).Int("issues", len(result.Issues)).Msg("safety check completed")
	return &result, nil
}

// FindPrompts asks the model to recommend catalog entries for a query.
func (c *Client) FindPrompts(ctx context.Context, query string, candidates []safety.Candidate) (*safety.SearchResult, error) {
	catalog, err := json.Marshal(candidates)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"marshal prompt context", err, "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e")
	}
	user := fmt.Sprintf("User query: %q\n\nAvailable prompts: %s", query, catalog)

	var result safety.SearchResult
	if err := c.completeJSON(ctx, assistantSystemPrompt, user, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) completeJSON(ctx context.Context, system, user string, out any) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion failed", err, "c3d4e5f6-a7b8-4c9d-8e0f-2a3b4c5d6e7f")
	}
	if len(resp.Choices) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion returned no choices", nil, "d4e5f6a7-b8c9-4d0e-9f1a-3b4c5d6e7f80")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion returned malformed JSON", err, "e5f6a7b8-c9d0-4e1f-8a2b-4c5d6e7f8091")
	}
	return nil
}
