package gateway

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeLLM is an llms.Model that replays canned replies and records every
// message list it was given.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return nil, f.err
	}
	text := "ok"
	if len(f.replies) > 0 {
		text, f.replies = f.replies[0], f.replies[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, opts...)
}

func (f *fakeLLM) lastCall() []llms.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textOf(m llms.MessageContent) string {
	for _, p := range m.Parts {
		if tp, ok := p.(llms.TextContent); ok {
			return tp.Text
		}
	}
	return ""
}
