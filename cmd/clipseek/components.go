package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/config"
	"github.com/clipseek/clipseek/internal/hint"
	"github.com/clipseek/clipseek/internal/ngram"
	"github.com/clipseek/clipseek/internal/pipeline"
	"github.com/clipseek/clipseek/internal/scheduler"
	"github.com/clipseek/clipseek/internal/search"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/vecsearch"
)

// Components holds the wired application services.
type Components struct {
	Storage   storage.Storage
	Engine    *search.Engine
	Hints     *hint.Index
	Scheduler *scheduler.Scheduler
}

// Close releases held resources.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents wires storage, engines, collaborator clients, the
// pipeline, and the scheduler from cfg.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	describer, err := clients.NewHTTPDescriber(cfg.Clients.DescriberURLs, cfg.Clients.Timeout())
	if err != nil {
		return nil, err
	}
	translator, err := clients.NewHTTPTranslator(cfg.Clients.TranslatorURL, cfg.Clients.Timeout())
	if err != nil {
		return nil, err
	}
	embedder, err := clients.NewHTTPEmbedder(cfg.Clients.EmbedderURL, cfg.Clients.Timeout())
	if err != nil {
		return nil, err
	}
	transcriber, err := clients.NewHTTPTranscriber(cfg.Clients.TranscriberURL, cfg.Clients.Timeout())
	if err != nil {
		return nil, err
	}

	ngrams := ngram.NewEngine(store, ngram.Options{
		Size:                  cfg.Index.NgramSize,
		AvgDocLength:          cfg.Index.AvgDocLength,
		K1:                    cfg.Index.BM25K1,
		B:                     cfg.Index.BM25B,
		CandidatePoolPerNgram: cfg.Index.CandidatePoolPerNgram,
	})
	vectors := vecsearch.NewSearcher(store, cfg.Index.VectorTolerance)
	hints := hint.NewIndex(store,
		hint.WithQuietPeriod(cfg.Hints.QuietPeriod()),
		hint.WithLogger(logger),
	)

	runner := pipeline.NewRunner(pipeline.Deps{
		Store:       store,
		Describer:   describer,
		Translator:  translator,
		Embedder:    embedder,
		Transcriber: transcriber,
		Ngrams:      ngrams,
		Vectors:     vectors,
		Hints:       hints,
		Index:       cfg.Index,
		Logger:      logger,
	})
	sched := scheduler.NewScheduler(store, runner, scheduler.Options{
		Workers:      cfg.Indexer.Workers,
		PollInterval: cfg.Indexer.PollInterval(),
		IdleDelay:    cfg.Indexer.IdleDelay(),
		StartupDelay: cfg.Indexer.StartupDelay(),
	}, logger)

	engine := search.NewEngine(store, ngrams, vectors, cfg.Index.ExpansionFloor, logger)

	return &Components{
		Storage:   store,
		Engine:    engine,
		Hints:     hints,
		Scheduler: sched,
	}, nil
}
