// Package pipeline implements the ordered chain of idempotent indexing steps
// applied to a claimed video record.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/config"
	"github.com/clipseek/clipseek/internal/hint"
	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/ngram"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/vecsearch"
)

// ErrNoAdvance signals a transient no-data condition: the step ran without
// failing but the record must stay at its current status for a later pass.
var ErrNoAdvance = errors.New("no advance")

// Step is one state transition of the indexing pipeline. Run is only invoked
// when the record's status equals Initial; on success the runner transitions
// the record to Target.
type Step interface {
	Name() string
	Initial() models.VideoStatus
	Target() models.VideoStatus
	Run(ctx context.Context, rec *models.VideoRecord) error
}

// Deps bundles the collaborators and engines the steps operate on.
type Deps struct {
	Store       storage.Storage
	Describer   clients.Describer
	Translator  clients.Translator
	Embedder    clients.Embedder
	Transcriber clients.Transcriber
	Ngrams      *ngram.Engine
	Vectors     *vecsearch.Searcher
	Hints       *hint.Index
	Index       config.IndexConfig
	Logger      *zap.Logger
}

// Runner applies the full ordered step chain to a record.
type Runner struct {
	steps  []Step
	store  storage.Storage
	logger *zap.Logger
}

// NewRunner builds the canonical chain: fix-error, describe, translate,
// build-index, transcribe.
func NewRunner(deps Deps) *Runner {
	return &Runner{
		steps: []Step{
			NewFixErrorStep(deps),
			NewDescribeStep(deps),
			NewTranslateStep(deps),
			NewBuildIndexStep(deps),
			NewTranscribeStep(deps),
		},
		store:  deps.Store,
		logger: deps.Logger,
	}
}

// RunAll applies every applicable step to rec in chain order. A step whose
// precondition does not match is skipped, so a record at any stage advances
// as far as it can in one pass. A failing step transitions the record to
// Error, releases its claim, and ends the pass; the failure is logged, never
// propagated.
func (r *Runner) RunAll(ctx context.Context, rec *models.VideoRecord) {
	for _, step := range r.steps {
		if rec.Status != step.Initial() {
			continue
		}
		if err := step.Run(ctx, rec); err != nil {
			if errors.Is(err, ErrNoAdvance) {
				return
			}
			rec.SetStatus(models.StatusError)
			rec.Claimed = false
			if uerr := r.store.UpdateVideo(ctx, rec); uerr != nil {
				r.logger.Error("failed to persist error status",
					zap.String("video_id", rec.ID), zap.Error(uerr))
			}
			r.logger.Error("pipeline step failed",
				zap.String("step", step.Name()),
				zap.String("video_id", rec.ID),
				zap.Error(err),
			)
			return
		}
		rec.SetStatus(step.Target())
		if err := r.store.UpdateVideo(ctx, rec); err != nil {
			r.logger.Error("failed to persist status transition",
				zap.String("step", step.Name()),
				zap.String("video_id", rec.ID),
				zap.Error(err),
			)
			return
		}
		r.logger.Info("pipeline step completed",
			zap.String("step", step.Name()),
			zap.String("video_id", rec.ID),
			zap.String("status", rec.Status.String()),
		)
	}
}
