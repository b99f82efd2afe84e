// Package ingest scans image directories, extracts album candidates and
// adds them to the catalog after asking the user for the details the
// images cannot supply.
package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_prompter.go -package=mocks github.com/starford/albumdex/internal/ingest Prompter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/storage"
)

// ErrAborted is returned by a Prompter when the user stops the scan.
var ErrAborted = errors.New("ingest: aborted by user")

// DefaultExtensions are the image types scanned when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// Details is what the user adds to an extracted candidate.
type Details struct {
	Genre  string
	Rating int
	Skip   bool
}

// Prompter asks the user about one candidate.
type Prompter interface {
	AlbumDetails(ctx context.Context, img models.ImageFile, c models.Candidate) (Details, error)
}

// Adder stores an album unless it is a duplicate.
type Adder interface {
	AddAlbum(ctx context.Context, a models.Album) (int64, models.AddStatus, error)
}

// Markers records which images were already scanned.
type Markers interface {
	IsSourceProcessed(ctx context.Context, path string) (bool, error)
	MarkSourceProcessed(ctx context.Context, src models.ProcessedSource) error
}

// Summary counts what a scan did.
type Summary struct {
	RunID            string `json:"run_id"`
	Images           int    `json:"images"`
	AlreadyProcessed int    `json:"already_processed"`
	Failed           int    `json:"failed"`
	Candidates       int    `json:"candidates"`
	Added            int    `json:"added"`
	Duplicates       int    `json:"duplicates"`
	Skipped          int    `json:"skipped"`
}

// Scanner runs the ingestion workflow.
type Scanner struct {
	markers  Markers
	adder    Adder
	llm      inference.Service
	prompter Prompter
	exts     []string
	logger   *slog.Logger
}

// Option customizes the scanner.
type Option func(*Scanner)

// WithExtensions sets the file extensions treated as images.
func WithExtensions(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.exts = exts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a scanner.
func NewScanner(markers Markers, adder Adder, llm inference.Service, prompter Prompter, opts ...Option) *Scanner {
	s := &Scanner{
		markers:  markers,
		adder:    adder,
		llm:      llm,
		prompter: prompter,
		exts:     DefaultExtensions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan processes every unseen image under dir. Per-image and per-album
// failures are logged and counted; only listing errors, store errors on
// markers and a user abort stop the scan.
func (s *Scanner) Scan(ctx context.Context, dir storage.Provider) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := s.logger.With(slog.String("run_id", sum.RunID), slog.String("dir", dir.Root()))

	images, err := dir.List("", s.exts)
	if err != nil {
		return sum, err
	}
	logger.Info("scan started", slog.Int("images", len(images)))

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Images++

		done, err := s.markers.IsSourceProcessed(ctx, img.AbsPath)
		if err != nil {
			return sum, err
		}
		if done {
			sum.AlreadyProcessed++
			continue
		}

		added, err := s.scanImage(ctx, logger, dir, img, &sum)
		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
			logger.Info("scan aborted", slog.String("image", img.Path))
			return sum, err
		}
		if err != nil {
			sum.Failed++
			logger.Warn("image failed", slog.String("image", img.Path), slog.String("error", err.Error()))
			continue
		}

		if err := s.markers.MarkSourceProcessed(ctx, models.ProcessedSource{
			Path:            img.AbsPath,
			Checksum:        img.Checksum,
			AlbumsExtracted: added,
		}); err != nil {
			return sum, err
		}
	}

	logger.Info("scan finished",
		slog.Int("images", sum.Images),
		slog.Int("added", sum.Added),
		slog.Int("duplicates", sum.Duplicates),
		slog.Int("failed", sum.Failed))
	return sum, nil
}

// scanImage returns the number of newly added albums.
func (s *Scanner) scanImage(ctx context.Context, logger *slog.Logger, dir storage.Provider, img models.ImageFile, sum *Summary) (int, error) {
	data, err := dir.Read(img.Path)
	if err != nil {
		return 0, err
	}
	cands, err := s.llm.ExtractCandidates(ctx, inference.Image{Path: img.AbsPath, Data: data})
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}
	logger.Info("albums found", slog.String("image", img.Path), slog.Int("count", len(cands)))
	sum.Candidates += len(cands)

	added := 0
	for _, c := range cands {
		d, err := s.prompter.AlbumDetails(ctx, img, c)
		if err != nil {
			return added, err
		}
		if d.Skip {
			sum.Skipped++
			continue
		}

		id, status, err := s.adder.AddAlbum(ctx, models.Album{
			Name:            c.Name,
			Artists:         c.Artists,
			Genre:           d.Genre,
			Rating:          d.Rating,
			SourceImagePath: img.AbsPath,
		})
		if err != nil {
			logger.Warn("album not added",
				slog.String("album", c.Name),
				slog.String("error", err.Error()))
			continue
		}
		switch status {
		case models.StatusAdded:
			added++
			sum.Added++
		case models.StatusDuplicate:
			sum.Duplicates++
			logger.Info("already in catalog", slog.Int64("id", id), slog.String("album", c.Name))
		}
	}
	return added, nil
}
