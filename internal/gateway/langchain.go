package gateway

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/designsprint/internal/config"
)

// langchainBackend serves any langchaingo model. Sessions are emulated by
// replaying the accumulated message history on every send.
type langchainBackend struct {
	model llms.Model
}

func newLangchainBackend(cfg config.AIConfig) (*langchainBackend, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: d}))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &langchainBackend{model: llm}, nil
}

func (b *langchainBackend) startChat(_ context.Context, instruction string, history []Turn) (chat, error) {
	msgs := make([]llms.MessageContent, 0, len(history)+1)
	if instruction != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	}
	for _, t := range history {
		role := llms.ChatMessageTypeHuman
		if t.Role == RoleModel {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, t.Text))
	}
	return &langchainChat{model: b.model, history: msgs}, nil
}

// generate ignores grounded: search tools are Gemini-specific.
func (b *langchainBackend) generate(ctx context.Context, prompt, instruction string, _ bool) (Reply, error) {
	msgs := make([]llms.MessageContent, 0, 2)
	if instruction != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return generateLangchain(ctx, b.model, msgs)
}

func (b *langchainBackend) generateImage(context.Context, string) (InlineData, error) {
	return InlineData{}, ErrImageGenerationDisabled
}

func (b *langchainBackend) close() error { return nil }

type langchainChat struct {
	model llms.Model

	mu      sync.Mutex
	history []llms.MessageContent
}

func (c *langchainChat) send(ctx context.Context, content Content) (Reply, error) {
	msg := llms.MessageContent{Role: llms.ChatMessageTypeHuman}
	for _, img := range content.Images {
		msg.Parts = append(msg.Parts, llms.BinaryPart(img.MIMEType, img.Data))
	}
	msg.Parts = append(msg.Parts, llms.TextPart(content.Text))

	c.mu.Lock()
	msgs := append(slices.Clip(c.history), msg)
	c.mu.Unlock()

	reply, err := generateLangchain(ctx, c.model, msgs)
	if err != nil {
		return Reply{}, err
	}

	c.mu.Lock()
	c.history = append(c.history, msg, llms.TextParts(llms.ChatMessageTypeAI, reply.Text))
	c.mu.Unlock()
	return reply, nil
}

func generateLangchain(ctx context.Context, model llms.Model, msgs []llms.MessageContent) (Reply, error) {
	resp, err := model.GenerateContent(ctx, msgs)
	if err != nil {
		return Reply{}, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, ErrEmptyResponse
	}
	return Reply{Text: resp.Choices[0].Content}, nil
}

var _ backend = (*langchainBackend)(nil)
