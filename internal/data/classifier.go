package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
)

const defaultClassifierModel = "gpt-4o-mini"

const classifierPrompt = `You route WhatsApp messages sent to Pro Campo, an agricultural products reseller in Ecuador.
The bot answers a fixed menu (products, catalogue, prices, location, technical sheets).

Decide whether the customer wants to talk to a human sales advisor.
Answer YES when they ask for a person, a quote, a call, a negotiation, or describe a problem the menu cannot solve.
Answer NO for greetings, thanks, small talk, or anything the menu already covers.

Reply only YES or NO.`

// ClassifierOptions configures the OpenAI-compatible classifier
type ClassifierOptions struct {
	APIKey  string
	BaseURL string // Empty uses the OpenAI endpoint
	Model   string
	Timeout time.Duration
}

// classifierRepo implements the Intent repository with a chat completion
type classifierRepo struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewClassifierRepo creates a classifier repository, nil when no API key is set
func NewClassifierRepo(opts ClassifierOptions) repo.IntentRepo {
	if opts.APIKey == "" {
		return nil
	}
	if opts.Model == "" {
		opts.Model = defaultClassifierModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}

	return &classifierRepo{
		client:  openai.NewClientWithConfig(config),
		model:   opts.Model,
		timeout: opts.Timeout,
	}
}

// WantsHuman asks the model whether the message requests a human advisor
func (r *classifierRepo) WantsHuman(ctx context.Context, message string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: 0,
		MaxTokens:   5,
	})
	if err != nil {
		return false, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("no response choices")
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))
	return strings.HasPrefix(answer, "YES") || strings.HasPrefix(answer, "SI") || strings.HasPrefix(answer, "SÍ"), nil
}
