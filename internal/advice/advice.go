// Package advice forwards free-text questions to a hosted chat-completion API,
// attaching the user's current conversion settings as context.
package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	openai "github.com/sashabaranov/go-openai"
	"github.com/wb-go/wbf/config"
)

type Advisor struct {
	client    *openai.Client
	modelName string
}

func NewAdvisor(cfg *config.Config) (*Advisor, error) {
	key := cfg.GetString("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}

	clientCfg := openai.DefaultConfig(key)
	if base := cfg.GetString("OPENAI_BASE_URL"); base != "" {
		clientCfg.BaseURL = base
	}

	modelName := cfg.GetString("OPENAI_MODEL")
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	return &Advisor{
		client:    openai.NewClientWithConfig(clientCfg),
		modelName: modelName,
	}, nil
}

const systemPrompt = "You are an assistant built into a batch image converter. " +
	"Help the user pick sensible image size, format, quality and watermark settings. Answer briefly."

// Ask sends the question together with the current {width, height, format}
// context, passed into the prompt verbatim.
func (a *Advisor) Ask(ctx context.Context, question string, cfg model.ProcessingConfig) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", model.ErrEmptyQuestion
	}

	userMsg := fmt.Sprintf("%s\n\nCurrent conversion settings: width=%d, height=%d, format=%s.",
		question, cfg.Width, cfg.Height, cfg.Format)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat-completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat-completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
