// Package inference wraps the upstream model-inference provider.
package inference

import (
	"context"
	"errors"

	"github.com/bwengye/bwengye/internal/models"
	"github.com/bwengye/bwengye/internal/prompt"
)

// ErrUpstream indicates the inference call failed or returned an unusable
// response. Nothing is persisted when a request fails here; the caller must
// resubmit.
var ErrUpstream = errors.New("inference: upstream call failed")

// ChatResult is the reply from one chat completion call.
type ChatResult struct {
	Content    string
	TokensUsed int
}

// ImageRequest describes one image-generation call.
type ImageRequest struct {
	Model   string // defaults to the provider's image model
	Prompt  string
	Size    string
	Quality string
}

// ImageResult is the outcome of one image-generation call.
type ImageResult struct {
	ImageDataURL string // data:image/png;base64,...
	Model        string
	TokensUsed   int
}

// Provider is the upstream inference contract. Implementations perform
// network I/O and honor context cancellation; callers attempt no automatic
// retries.
type Provider interface {
	ChatCompletion(ctx context.Context, model models.AIModel, turns []prompt.Turn) (*ChatResult, error)
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
