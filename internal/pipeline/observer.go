package pipeline

import (
	"context"
	"time"

	"resumatch/internal/types"
)

// Stage names a timed step of a pipeline run.
type Stage string

const (
	StageNormalizeResume Stage = "normalize_resume"
	StageNormalizeJob    Stage = "normalize_job"
	StageExtractSkills   Stage = "extract_skills"
	StageSimilarity      Stage = "similarity"
	StageClassify        Stage = "classify"
	StageProfile         Stage = "profile"
)

// Operation names a pipeline entry point.
const (
	OperationAnalyze = "analyze"
	OperationParse   = "parse"
)

// Observer receives timings and outcomes. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	RecordStage(ctx context.Context, stage Stage, d time.Duration, err error)
	RecordRequest(ctx context.Context, operation string, d time.Duration, err error)
	RecordPrediction(ctx context.Context, result *types.MatchResult)
}

type nopObserver struct{}

func (nopObserver) RecordStage(context.Context, Stage, time.Duration, error)    {}
func (nopObserver) RecordRequest(context.Context, string, time.Duration, error) {}
func (nopObserver) RecordPrediction(context.Context, *types.MatchResult)        {}

type requestIDKey struct{}

// WithRequestID attaches a request id that pipeline log lines carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
