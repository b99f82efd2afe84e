package inference

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/imaging"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/parser"
)

const (
	defaultTimeout        = 60 * time.Second
	extractMaxTokens      = 1000
	metadataMaxTokens     = 2000
	classifyMaxTokens     = 500
	defaultImageDimension = 2048
)

// Config selects and configures one provider.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxImageDimension int
}

// request is a single-turn prompt, optionally with one image.
type request struct {
	Prompt    string
	Image     *imaging.Payload
	MaxTokens int
}

// backend is the vendor-specific transport.
type backend interface {
	complete(ctx context.Context, req request) (string, error)
}

var _ Service = (*Client)(nil)

// Client implements Service on top of a vendor backend. Prompting and
// answer decoding are shared by all providers.
type Client struct {
	provider    string
	backend     backend
	maxImageDim int
	logger      *slog.Logger
	httpClient  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for recoverable decode failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for cfg.Provider. A missing or placeholder API key
// is a configuration error.
func New(cfg Config, opts ...Option) (*Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" || IsPlaceholderKey(provider, key) {
		return nil, apperr.Configuration("llm.%s.api_key is not set", provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		provider:    provider,
		maxImageDim: cfg.MaxImageDimension,
		logger:      slog.Default(),
		httpClient:  &http.Client{Timeout: timeout},
	}
	if c.maxImageDim == 0 {
		c.maxImageDim = defaultImageDimension
	}
	for _, opt := range opts {
		opt(c)
	}

	model := strings.TrimSpace(cfg.Model)
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	switch provider {
	case ProviderOpenAI:
		c.backend = newOpenAI(c.httpClient, key, model, baseURL)
	case ProviderAnthropic:
		c.backend = newAnthropic(c.httpClient, key, model, baseURL)
	case ProviderGoogle:
		c.backend = newGoogle(c.httpClient, key, model, baseURL)
	default:
		return nil, apperr.Configuration("unknown llm provider %q (want one of %s)",
			cfg.Provider, strings.Join(Providers, ", "))
	}
	return c, nil
}

// IsPlaceholderKey reports whether key is the template value shipped in
// the sample configuration.
func IsPlaceholderKey(provider, key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), fmt.Sprintf("your-%s-api-key-here", provider))
}

// Name returns the provider name.
func (c *Client) Name() string { return c.provider }

// ExtractCandidates sends the image and decodes the album list. An image
// or answer that cannot be decoded yields no candidates; only transport
// failures are errors.
func (c *Client) ExtractCandidates(ctx context.Context, img Image) ([]models.Candidate, error) {
	payload, err := imaging.Prepare(img.Data, c.maxImageDim)
	if err != nil {
		c.logger.Warn("undecodable image",
			slog.String("provider", c.provider),
			slog.String("image", img.Path),
			slog.String("error", err.Error()))
		return []models.Candidate{}, nil
	}
	content, err := c.backend.complete(ctx, request{Prompt: extractPrompt, Image: &payload, MaxTokens: extractMaxTokens})
	if err != nil {
		return nil, c.fail("extract", err)
	}
	cands, err := parser.Candidates(content)
	if err != nil {
		c.logger.Warn("unreadable extraction answer",
			slog.String("provider", c.provider),
			slog.String("image", img.Path),
			slog.String("error", err.Error()))
		return []models.Candidate{}, nil
	}
	return cands, nil
}

// FetchMetadata asks for the given fields, or the full schema when fields
// is empty.
func (c *Client) FetchMetadata(ctx context.Context, name string, artists []string, fields []models.Field) (models.Metadata, error) {
	content, err := c.backend.complete(ctx, request{
		Prompt:    metadataPrompt(name, artists, fields),
		MaxTokens: metadataMaxTokens,
	})
	if err != nil {
		return models.Metadata{}, c.fail("fetch metadata", err)
	}
	m, err := parser.Metadata(content)
	if err != nil {
		return models.Metadata{}, c.fail("fetch metadata", err)
	}
	return m, nil
}

// Classify matches the album against the vocabulary. Labels outside the
// vocabulary are dropped and the rest take the vocabulary's spelling.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) ([]string, error) {
	if len(req.Vocabulary) == 0 {
		return nil, nil
	}
	content, err := c.backend.complete(ctx, request{Prompt: classifyPrompt(req), MaxTokens: classifyMaxTokens})
	if err != nil {
		return nil, c.fail("classify", err)
	}
	labels, err := parser.Labels(content)
	if err != nil {
		return nil, c.fail("classify", err)
	}
	return restrict(labels, req.Vocabulary), nil
}

func (c *Client) fail(op string, err error) error {
	return &apperr.InferenceError{Provider: c.provider, Op: op, Err: err}
}

func restrict(labels, vocabulary []string) []string {
	known := make(map[string]string, len(vocabulary))
	for _, v := range vocabulary {
		known[strings.ToLower(strings.TrimSpace(v))] = v
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		v, ok := known[strings.ToLower(strings.TrimSpace(l))]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
