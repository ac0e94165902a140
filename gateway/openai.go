// Package gateway wraps the OpenAI-compatible API behind the two
// collaborator contracts the pipeline consumes: embedding and
// generation.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"studyassist/config"
	"studyassist/core"
)

// ErrEmptyText is returned when Embed is called with blank input.
var ErrEmptyText = errors.New("cannot embed empty text")

type OpenAI struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
}

func NewOpenAI(cfg *config.Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
	}
}

// Embed returns the embedding vector for text.
func (g *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(g.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

// Generate issues one blocking chat completion.
func (g *OpenAI) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return g.complete(ctx, systemPrompt, nil, userMessage)
}

// GenerateWithHistory inserts a prior conversation between the system
// prompt and the user message. Still a single completion call.
func (g *OpenAI) GenerateWithHistory(ctx context.Context, systemPrompt string, history []core.Turn, userMessage string) (string, error) {
	return g.complete(ctx, systemPrompt, history, userMessage)
}

func (g *OpenAI) complete(ctx context.Context, systemPrompt string, history []core.Turn, userMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.chatModel,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
