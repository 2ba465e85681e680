package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_20250514)

// Messager is the part of the Anthropic SDK the backend calls.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic interprets and narrates through the Anthropic Messages API.
type Anthropic struct {
	messages  Messager
	model     string
	maxTokens int64
}

// NewAnthropic builds a backend with the SDK client. Extra options are
// passed to the SDK, e.g. option.WithBaseURL.
func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	c := anthropic.NewClient(opts...)
	return NewAnthropicWith(&c.Messages, model)
}

// NewAnthropicWith builds a backend over an existing Messager.
func NewAnthropicWith(m Messager, model string) *Anthropic {
	if strings.TrimSpace(model) == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{messages: m, model: model, maxTokens: 4096}
}

// Model returns the configured model name.
func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return sb.String(), nil
}

// Interpret asks the model for the intent of question.
func (a *Anthropic) Interpret(ctx context.Context, question string) (intent.Intent, error) {
	raw, err := a.complete(ctx, interpretSystem, interpretPrompt(question))
	if err != nil {
		return intent.Intent{}, err
	}
	return intent.Parse(raw)
}

// Narrate turns a filter outcome into a conversational answer.
func (a *Anthropic) Narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) (string, error) {
	user, err := narratePrompt(question, in, out)
	if err != nil {
		return "", err
	}
	reply, err := a.complete(ctx, narrateSystem, user)
	if err != nil {
		return "", err
	}
	return PlainText(reply), nil
}
