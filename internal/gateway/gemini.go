package gateway

import (
	"context"

	"google.golang.org/genai"

	"github.com/fyrsmithlabs/designsprint/internal/config"
)

const imageMIMEType = "image/jpeg"

type geminiBackend struct {
	client     *genai.Client
	model      string
	imageModel string
}

func newGeminiBackend(ctx context.Context, cfg config.AIConfig) (*geminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey.Value(),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		cc.HTTPOptions.Timeout = &d
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &geminiBackend{
		client:     client,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
	}, nil
}

func (b *geminiBackend) startChat(ctx context.Context, instruction string, history []Turn) (chat, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	gc, err := b.client.Chats.Create(ctx, b.model, b.contentConfig(instruction, false), contents)
	if err != nil {
		return nil, err
	}
	return &geminiChat{chat: gc}, nil
}

func (b *geminiBackend) generate(ctx context.Context, prompt, instruction string, grounded bool) (Reply, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), b.contentConfig(instruction, grounded))
	if err != nil {
		return Reply{}, err
	}
	return geminiReply(resp)
}

func (b *geminiBackend) generateImage(ctx context.Context, prompt string) (InlineData, error) {
	resp, err := b.client.Models.GenerateImages(ctx, b.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: imageMIMEType,
	})
	if err != nil {
		return InlineData{}, err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return InlineData{}, ErrImageGenerationFailed
	}
	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = imageMIMEType
	}
	return InlineData{MIMEType: mime, Data: img.ImageBytes}, nil
}

// genai.Client holds no resources that need releasing.
func (b *geminiBackend) close() error { return nil }

func (b *geminiBackend) contentConfig(instruction string, grounded bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
	if grounded {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

type geminiChat struct {
	chat *genai.Chat
}

func (c *geminiChat) send(ctx context.Context, content Content) (Reply, error) {
	parts := make([]*genai.Part, 0, len(content.Images)+1)
	for _, img := range content.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(content.Text))

	resp, err := c.chat.Send(ctx, parts...)
	if err != nil {
		return Reply{}, err
	}
	return geminiReply(resp)
}

func geminiReply(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, ErrEmptyResponse
	}
	return Reply{
		Text:      resp.Text(),
		Citations: groundingCitations(resp.Candidates[0].GroundingMetadata),
	}, nil
}

// groundingCitations returns the distinct web sources in md.
func groundingCitations(md *genai.GroundingMetadata) []Citation {
	if md == nil {
		return nil
	}
	var out []Citation
	seen := make(map[string]bool)
	for _, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}

var _ backend = (*geminiBackend)(nil)
