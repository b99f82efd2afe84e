// Package inference talks to multimodal model providers that extract,
// describe and classify albums.
package inference

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks github.com/starford/albumdex/internal/inference Service

import (
	"context"

	"github.com/starford/albumdex/internal/models"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}

// Image is raw cover image content.
type Image struct {
	Path string
	Data []byte
}

// ClassifyRequest carries what the classifier sees about an album.
type ClassifyRequest struct {
	Name       string
	Artists    []string
	Review     string
	Genre      string
	Style      string
	Vocabulary []string
}

// Service is the capability the catalog depends on. Implementations differ
// only in transport.
type Service interface {
	// Name identifies the provider in logs.
	Name() string
	// ExtractCandidates lists the albums visible in an image. An image that
	// shows no readable album yields an empty slice, not an error.
	ExtractCandidates(ctx context.Context, img Image) ([]models.Candidate, error)
	// FetchMetadata describes an album. A nil fields slice asks for the
	// full schema; otherwise the answer is constrained to fields.
	FetchMetadata(ctx context.Context, name string, artists []string, fields []models.Field) (models.Metadata, error)
	// Classify returns the subset of req.Vocabulary the album fits.
	Classify(ctx context.Context, req ClassifyRequest) ([]string, error)
}
