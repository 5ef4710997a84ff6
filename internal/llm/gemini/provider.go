package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/gemini-cli/internal/config"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-pro"

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) newClient(ctx context.Context) (*genai.Client, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// ListModels returns the models that support generateContent
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var models []string
	it := client.ListModels(ctx)
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gemini models: %w", err)
		}
		if supportsGenerate(info.SupportedGenerationMethods) {
			models = append(models, info.Name)
		}
	}
	return models, nil
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

func (p *Provider) Generate(ctx context.Context, prompt string, model string) (*llm.Response, error) {
	if model == "" {
		model = p.DefaultModel()
	}

	client, err := p.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)

	start := time.Now()
	resp, err := generativeModel.GenerateContent(ctx, genai.Text(prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return nil, fmt.Errorf("empty response from gemini")
	}

	out := &llm.Response{
		Text:      output,
		Model:     model,
		LatencyMs: latency,
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
