package sprint

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/designsprint/internal/gateway"
)

type onceCall struct {
	prompt      string
	instruction string
}

type summaryCall struct {
	content string
	label   string
}

// fakeClient is a scriptable gateway.Client. When gate is set, Send,
// GenerateOnce and GenerateSummary signal started and then wait for gate.
type fakeClient struct {
	mu sync.Mutex

	startErr error
	sessions []*fakeSession

	sendErr   error
	replyText string
	citations []gateway.Citation

	onceCalls   []onceCall
	onceReplies []string

	summaryCalls []summaryCall
	summaryText  string
	summaryErr   error

	image    gateway.InlineData
	imageErr error

	gate    chan struct{}
	started chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{summaryText: "A concise summary."}
}

// blockCalls makes the next blocking call wait until the returned release
// func is called.
func (f *fakeClient) blockCalls() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 8)
	gate := f.gate
	return func() { close(gate) }
}

func (f *fakeClient) wait(ctx context.Context) error {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	started <- struct{}{}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeClient) StartSession(_ context.Context, instruction string, history []gateway.Turn) (gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	s := &fakeSession{client: f, instruction: instruction, history: history}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeClient) GenerateOnce(ctx context.Context, prompt, instruction string) (gateway.Reply, error) {
	if err := f.wait(ctx); err != nil {
		return gateway.Reply{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onceCalls = append(f.onceCalls, onceCall{prompt: prompt, instruction: instruction})
	if f.sendErr != nil {
		return gateway.Reply{}, f.sendErr
	}
	text := "no structure here"
	if len(f.onceReplies) > 0 {
		text, f.onceReplies = f.onceReplies[0], f.onceReplies[1:]
	}
	return gateway.Reply{Text: text}, nil
}

func (f *fakeClient) GenerateSummary(ctx context.Context, content, label string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls = append(f.summaryCalls, summaryCall{content: content, label: label})
	return f.summaryText, f.summaryErr
}

func (f *fakeClient) GenerateImage(_ context.Context, _ string) (gateway.InlineData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image, f.imageErr
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeClient) lastSession() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

func (f *fakeClient) summaryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaryCalls)
}

type fakeSession struct {
	client      *fakeClient
	instruction string
	history     []gateway.Turn

	mu   sync.Mutex
	sent []gateway.Content
}

func (s *fakeSession) Send(ctx context.Context, content gateway.Content) (gateway.Reply, error) {
	if err := s.client.wait(ctx); err != nil {
		return gateway.Reply{}, err
	}
	s.mu.Lock()
	s.sent = append(s.sent, content)
	s.mu.Unlock()

	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	if s.client.sendErr != nil {
		return gateway.Reply{}, s.client.sendErr
	}
	text := s.client.replyText
	if text == "" {
		text = fmt.Sprintf("reply to %q", content.Text)
	}
	return gateway.Reply{Text: text, Citations: s.client.citations}, nil
}

func (s *fakeSession) SystemInstruction() string { return s.instruction }

func (s *fakeSession) sentContents() []gateway.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Content(nil), s.sent...)
}

var (
	_ gateway.Client  = (*fakeClient)(nil)
	_ gateway.Session = (*fakeSession)(nil)
)
