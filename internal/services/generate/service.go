package generate

import (
	"context"
	"crypto/sha256"
	"fmt"

	"quizstream/internal/config"
	"quizstream/internal/services/stream/contracts"
	"quizstream/internal/services/stream/readers"
	"quizstream/internal/utils/clientcache"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"google.golang.org/genai"
)

const anthropicMaxTokens = 4096

// Service opens streaming question-generation requests against the
// configured provider. Provider clients are cached per config hash so
// concurrent sessions share one client.
type Service struct {
	cfg              *config.Config
	openaiClients    *clientcache.Cache[*openai.Client]
	anthropicClients *clientcache.Cache[*anthropic.Client]
	geminiClients    *clientcache.Cache[*genai.Client]
}

// NewService creates a generation service for cfg.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:              cfg,
		openaiClients:    clientcache.NewCache[*openai.Client](),
		anthropicClients: clientcache.NewCache[*anthropic.Client](),
		geminiClients:    clientcache.NewCache[*genai.Client](),
	}
}

// Ready checks that the configured provider can be used at all. It is
// called before the response stream is opened, so credential problems
// surface as an ordinary JSON error instead of an event.
func (s *Service) Ready() error {
	providerConfig, ok := s.cfg.ProviderConfig(s.cfg.Generation.Provider)
	if !ok {
		return fmt.Errorf("provider %q is not configured", s.cfg.Generation.Provider)
	}
	if providerConfig.APIKey == "" {
		return fmt.Errorf("provider %q has no API key configured", s.cfg.Generation.Provider)
	}
	return nil
}

// OpenStream starts a streaming completion for text and returns a reader
// over its text deltas. Provider HTTP errors are not reported here; they
// surface on the first Recv, once the downstream channel is already open.
func (s *Service) OpenStream(ctx context.Context, text, requestID string) (contracts.DeltaReader, error) {
	provider := s.cfg.Generation.Provider
	providerConfig, ok := s.cfg.ProviderConfig(provider)
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", provider)
	}

	fiberlog.Infof("[%s] opening %s stream (model %s)", requestID, provider, s.cfg.Generation.Model)

	switch provider {
	case "openai":
		return s.openOpenAIStream(ctx, providerConfig, text, requestID)
	case "anthropic":
		return s.openAnthropicStream(ctx, providerConfig, text, requestID)
	case "gemini":
		return s.openGeminiStream(ctx, providerConfig, text, requestID)
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

func (s *Service) openOpenAIStream(ctx context.Context, providerConfig config.ProviderConfig, text, requestID string) (contracts.DeltaReader, error) {
	client, err := s.openaiClients.GetOrCreate(clientKey("openai", providerConfig), func() (*openai.Client, error) {
		opts := []openaiOption.RequestOption{
			openaiOption.WithAPIKey(providerConfig.APIKey),
		}
		if providerConfig.BaseURL != "" {
			opts = append(opts, openaiOption.WithBaseURL(providerConfig.BaseURL))
		}
		// No HTTP client timeout for streaming; the SSE connection must
		// stay open for the whole generation.
		c := openai.NewClient(opts...)
		return &c, nil
	})
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.cfg.Generation.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt()),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(s.cfg.Generation.Temperature),
	}

	stream := client.Chat.Completions.NewStreaming(ctx, params)
	return readers.NewOpenAIDeltaReader(stream, requestID), nil
}

func (s *Service) openAnthropicStream(ctx context.Context, providerConfig config.ProviderConfig, text, requestID string) (contracts.DeltaReader, error) {
	client, err := s.anthropicClients.GetOrCreate(clientKey("anthropic", providerConfig), func() (*anthropic.Client, error) {
		opts := []anthropicOption.RequestOption{
			anthropicOption.WithAPIKey(providerConfig.APIKey),
		}
		if providerConfig.BaseURL != "" {
			opts = append(opts, anthropicOption.WithBaseURL(providerConfig.BaseURL))
		}
		c := anthropic.NewClient(opts...)
		return &c, nil
	})
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.cfg.Generation.Model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
		Temperature: anthropic.Float(s.cfg.Generation.Temperature),
	}

	stream := client.Messages.NewStreaming(ctx, params)
	return readers.NewAnthropicDeltaReader(stream, requestID), nil
}

func (s *Service) openGeminiStream(ctx context.Context, providerConfig config.ProviderConfig, text, requestID string) (contracts.DeltaReader, error) {
	client, err := s.geminiClients.GetOrCreate(clientKey("gemini", providerConfig), func() (*genai.Client, error) {
		return genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  providerConfig.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if err != nil {
		return nil, err
	}

	generateConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.cfg.Generation.Temperature)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemPrompt()}},
		},
	}

	streamIter := client.Models.GenerateContentStream(ctx, s.cfg.Generation.Model, genai.Text(text), generateConfig)
	return readers.NewGeminiDeltaReader(streamIter, requestID), nil
}

// clientKey derives a cache key from the parts of the provider config
// that affect client construction. The raw API key never appears in it.
func clientKey(provider string, providerConfig config.ProviderConfig) string {
	sum := sha256.Sum256([]byte(providerConfig.APIKey + "\x00" + providerConfig.BaseURL))
	return fmt.Sprintf("%s:%x", provider, sum[:16])
}
