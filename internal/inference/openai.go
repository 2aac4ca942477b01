package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/bwengye/bwengye/internal/models"
	"github.com/bwengye/bwengye/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// defaultMaxCompletionTokens caps reply length when neither config nor
	// catalog supplies a limit.
	defaultMaxCompletionTokens = 4000
	// defaultTemperature applies to models using the legacy max_tokens
	// parameter; newer families reject an explicit temperature.
	defaultTemperature = 0.7
	// defaultImageModel is used when an image request names no model.
	defaultImageModel = "gpt-image-1"
	// defaultTimeout bounds one upstream call.
	defaultTimeout = 120 * time.Second
)

// tokenParamCompletion marks catalog entries whose API family takes
// max_completion_tokens instead of max_tokens.
const tokenParamCompletion = "max_completion_tokens"

// openaiClient abstracts the go-openai methods we use, enabling test mocks.
type openaiClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAI implements Provider against the OpenAI API.
type OpenAI struct {
	client    openaiClient
	maxTokens int
	timeout   time.Duration
}

// OpenAIOpts holds parameters for creating an OpenAI provider.
type OpenAIOpts struct {
	APIKey    string
	BaseURL   string // empty for the public API
	MaxTokens int    // server-wide completion cap, defaults to 4000
	Timeout   time.Duration
	// For testing: inject a mock client instead of the real API.
	Client openaiClient
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(opts OpenAIOpts) (*OpenAI, error) {
	client := opts.Client
	if client == nil {
		if opts.APIKey == "" {
			return nil, fmt.Errorf("inference: openai api key is required")
		}
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		client = openai.NewClientWithConfig(cfg)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxCompletionTokens
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAI{client: client, maxTokens: maxTokens, timeout: timeout}, nil
}

// ChatCompletion sends the assembled context window to the upstream API.
// Request parameters follow the catalog entry's configuration: entries
// marked token_param=max_completion_tokens use the newer parameter and omit
// temperature; everything else gets max_tokens plus the default temperature.
func (o *OpenAI) ChatCompletion(ctx context.Context, model models.AIModel, turns []prompt.Turn) (*ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		messages[i] = openai.ChatCompletionMessage{Role: t.Role, Content: t.Content}
	}

	limit := o.maxTokens
	if model.MaxTokens > 0 && model.MaxTokens < limit {
		limit = model.MaxTokens
	}

	req := openai.ChatCompletionRequest{
		Model:    model.Name,
		Messages: messages,
	}
	if model.ConfigMap()["token_param"] == tokenParamCompletion {
		req.MaxCompletionTokens = limit
	} else {
		req.MaxTokens = limit
		req.Temperature = defaultTemperature
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion with %s: %v", ErrUpstream, model.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat completion with %s: empty choices", ErrUpstream, model.Name)
	}

	return &ChatResult{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// GenerateImage runs one text-to-image call and returns the result as a
// base64 data URL. The upstream API reports no token usage for images, so
// TokensUsed is a fixed 1.
func (o *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = defaultImageModel
	}
	size := req.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         req.Prompt,
		Size:           size,
		Quality:        req.Quality,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: image generation with %s: %v", ErrUpstream, model, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: image generation with %s: empty response", ErrUpstream, model)
	}

	return &ImageResult{
		ImageDataURL: "data:image/png;base64," + resp.Data[0].B64JSON,
		Model:        model,
		TokensUsed:   1,
	}, nil
}
