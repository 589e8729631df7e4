package pipeline

import (
	"context"
	"math/rand"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/models"
)

const describePrompt = "Provide a list of keywords describing this video. Only list, no title text."

// DescribeStep requests a keyword description for a freshly queued video.
type DescribeStep struct {
	describer clients.Describer
}

// NewDescribeStep creates the describe step.
func NewDescribeStep(deps Deps) *DescribeStep {
	return &DescribeStep{describer: deps.Describer}
}

func (s *DescribeStep) Name() string                { return "describe" }
func (s *DescribeStep) Initial() models.VideoStatus { return models.StatusQueued }
func (s *DescribeStep) Target() models.VideoStatus  { return models.StatusDescribed }

// Run calls the description collaborator with the fixed prompt.
func (s *DescribeStep) Run(ctx context.Context, rec *models.VideoRecord) error {
	result, err := s.describer.Describe(ctx, rec.URL, describePrompt)
	if err != nil {
		return err
	}
	rec.RawDescription = &result
	return nil
}

// alternatePrompts are rephrasings tried by the error-recovery step. A single
// fixed prompt can fail deterministically for some videos; varying it gives
// the describer another chance.
var alternatePrompts = []string{
	"Describe this video with a list of keywords. Only list, no title text, no long sentences.",
	"What keywords are describing this video?",
	"What words are describing this video?",
	"Please, describe this video with just a list of keywords",
}

// FixErrorStep retries description for records that previously failed,
// using a randomly chosen alternate prompt.
type FixErrorStep struct {
	describer clients.Describer
}

// NewFixErrorStep creates the error-recovery step.
func NewFixErrorStep(deps Deps) *FixErrorStep {
	return &FixErrorStep{describer: deps.Describer}
}

func (s *FixErrorStep) Name() string                { return "fix-error" }
func (s *FixErrorStep) Initial() models.VideoStatus { return models.StatusError }
func (s *FixErrorStep) Target() models.VideoStatus  { return models.StatusDescribed }

// Run re-attempts description with an alternate prompt.
func (s *FixErrorStep) Run(ctx context.Context, rec *models.VideoRecord) error {
	prompt := alternatePrompts[rand.Intn(len(alternatePrompts))]
	result, err := s.describer.Describe(ctx, rec.URL, prompt)
	if err != nil {
		return err
	}
	rec.RawDescription = &result
	return nil
}
