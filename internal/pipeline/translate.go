package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/text"
)

const (
	translateSource       = "en"
	translateTarget       = "ru"
	translateAlternatives = 3
)

// TranslateStep translates the raw description into the index language.
type TranslateStep struct {
	translator clients.Translator
	// latinTolerance is the maximum Latin-letter ratio accepted in the
	// result; above it the translation most likely did not happen.
	latinTolerance float64
}

// NewTranslateStep creates the translate step.
func NewTranslateStep(deps Deps) *TranslateStep {
	return &TranslateStep{
		translator:     deps.Translator,
		latinTolerance: deps.Index.LatinRatioTolerance,
	}
}

func (s *TranslateStep) Name() string                { return "translate" }
func (s *TranslateStep) Initial() models.VideoStatus { return models.StatusDescribed }
func (s *TranslateStep) Target() models.VideoStatus  { return models.StatusTranslated }

// Run lower-cases and translates the description, keeping the alternative
// phrasings; a result that still reads mostly Latin is rejected.
func (s *TranslateStep) Run(ctx context.Context, rec *models.VideoRecord) error {
	if rec.RawDescription == nil {
		return fmt.Errorf("record has no raw description")
	}
	result, err := s.translator.Translate(ctx,
		strings.ToLower(*rec.RawDescription),
		translateSource, translateTarget, translateAlternatives)
	if err != nil {
		return err
	}
	combined := result.TranslatedText
	if len(result.Alternatives) > 0 {
		combined += "\n\n" + strings.Join(result.Alternatives, "\n")
	}
	if ratio := text.LatinRatio(combined); ratio > s.latinTolerance {
		return fmt.Errorf("translation rejected: latin ratio %.2f exceeds %.2f", ratio, s.latinTolerance)
	}
	rec.TranslatedDescription = &combined
	return nil
}
