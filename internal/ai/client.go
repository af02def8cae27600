package ai

import (
	"context"

	"google.golang.org/genai"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

// generator is the minimal text-generation surface the service needs;
// tests substitute a fake.
type generator interface {
	generate(ctx context.Context, model, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

// NewGenerator connects to the hosted model API.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (*genaiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ai api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create genai client")
	}
	return &genaiGenerator{client: client}, nil
}

func (g *genaiGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate content")
	}
	text := result.Text()
	if text == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "model returned no text")
	}
	return text, nil
}
