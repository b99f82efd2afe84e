package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/lock"
	"github.com/starford/albumdex/internal/logging"
	"github.com/starford/albumdex/internal/store"
	"github.com/starford/albumdex/internal/vocabulary"
)

// Deps bundles the collaborators every command works with.
type Deps struct {
	Config     *Config
	Logger     *slog.Logger
	Store      *store.DB
	Vocabulary *vocabulary.Vocabulary
	Service    *albumservice.Service

	// llm is nil when the provider is not configured; llmErr says why.
	llm    inference.Service
	llmErr error
}

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	return logging.New(w, cfg.App.LogLevel, cfg.App.LogFormat)
}

// Open wires the store, vocabulary, inference client and album service.
// A missing API key is not an error here; it surfaces from Inference.
func Open(opts ...Option) (*Deps, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var persist vocabulary.Persister
	if app.configPath != "" {
		persist = vocabulary.ConfigFile(app.configPath)
	}
	vocab := vocabulary.New(cfg.Settings.UserCategories, persist)

	d := &Deps{Config: cfg, Logger: logger, Store: db, Vocabulary: vocab}

	svcOpts := []albumservice.Option{
		albumservice.WithVocabulary(vocab),
		albumservice.WithAutoEnrich(cfg.Settings.AutoEnrich),
		albumservice.WithLogger(logger.With(slog.String("component", "albumservice"))),
	}
	client, err := inference.New(cfg.LLM.Inference(),
		inference.WithLogger(logger.With(slog.String("component", "inference"))))
	if err != nil {
		d.llmErr = err
	} else {
		d.llm = client
		svcOpts = append(svcOpts, albumservice.WithInference(client))
	}
	d.Service = albumservice.New(db, svcOpts...)
	return d, nil
}

// Inference returns the configured inference service or the
// configuration error that prevented building it.
func (d *Deps) Inference() (inference.Service, error) {
	if d.llm == nil {
		if d.llmErr == nil {
			return nil, errors.New("inference service is not configured")
		}
		return nil, d.llmErr
	}
	return d.llm, nil
}

// Lock takes the single-writer catalog lock.
func (d *Deps) Lock() (*lock.Lock, error) {
	return lock.Acquire(d.Config.LockPath())
}

// Close releases the store.
func (d *Deps) Close() error {
	return d.Store.Close()
}
