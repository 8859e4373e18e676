package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"resumatch/internal/errors"
	"resumatch/internal/profile"
	"resumatch/internal/skills"
	"resumatch/internal/types"
)

// Pipeline runs analyze and parse requests against a shared Engine. Every
// call is independent; a Pipeline is safe for concurrent use.
type Pipeline struct {
	engine        *Engine
	pool          *Pool
	breaker       *Breaker
	logger        *errors.Logger
	observer      Observer
	timeout       time.Duration
	summaryLength int
}

// Stats is a snapshot of pipeline state for the stats and health endpoints.
type Stats struct {
	Pool            PoolStats      `json:"pool"`
	CircuitBreaker  map[string]any `json:"circuit_breaker"`
	RequestTimeout  string         `json:"request_timeout"`
	ModelVersion    string         `json:"model_version"`
	TaxonomyVersion string         `json:"taxonomy_version"`
	TaxonomySkills  int            `json:"taxonomy_skills"`
}

// New creates a Pipeline over engine.
func New(engine *Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:        engine,
		pool:          NewPool(0),
		logger:        errors.NewNopLogger(),
		observer:      nopObserver{},
		summaryLength: profile.DefaultSummaryLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the shared artifacts.
func (p *Pipeline) Engine() *Engine { return p.engine }

// Analyze judges whether resume fits job. It fails with a validation error
// for blank input, an extraction error for unreadable documents, a timeout
// error when the request deadline passes, and an internal error otherwise.
func (p *Pipeline) Analyze(ctx context.Context, resume types.Document, job string) (*types.MatchResult, error) {
	start := time.Now()
	result, err := p.analyze(ctx, resume, job)
	if err != nil {
		err = p.fail(ctx, OperationAnalyze, err)
	} else {
		p.observer.RecordPrediction(ctx, result)
	}
	p.observer.RecordRequest(ctx, OperationAnalyze, time.Since(start), err)
	return result, err
}

func (p *Pipeline) analyze(ctx context.Context, resume types.Document, job string) (*types.MatchResult, error) {
	if err := validateResume(resume); err != nil {
		return nil, err
	}
	if strings.TrimSpace(job) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyInput, "job description is empty", nil)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resumeText, err := p.normalizeResume(ctx, resume)
	if err != nil {
		return nil, err
	}
	jobText, err := p.normalizeJob(ctx, job)
	if err != nil {
		return nil, err
	}

	resumeSkills, jobSkills, err := p.extractSkills(ctx, resumeText.Text, jobText.Text)
	if err != nil {
		return nil, err
	}

	var similarityScore float64
	err = p.stage(ctx, StageSimilarity, func() error {
		similarityScore = p.engine.Scorer.Score(resumeText.Text, jobText.Text)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	matched := skills.Intersect(jobSkills, resumeSkills)
	features := types.FeatureVector{
		SimilarityScore:  similarityScore,
		ResumeSkillCount: len(resumeSkills),
		JobSkillCount:    len(jobSkills),
		OverlapCount:     len(matched),
		OverlapRatio:     float64(len(matched)) / float64(max(1, len(jobSkills))),
	}

	type decision struct {
		label      types.Prediction
		confidence float64
	}
	var d decision
	err = p.stage(ctx, StageClassify, func() error {
		var err error
		d, err = Run(ctx, p.pool, func() (decision, error) {
			label, confidence := p.engine.Classifier.Classify(features)
			return decision{label, confidence}, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &types.MatchResult{
		Prediction:      d.label,
		ConfidenceScore: d.confidence,
		SimilarityScore: similarityScore,
		ResumeSkills:    resumeSkills,
		JobSkills:       jobSkills,
		MatchedSkills:   matched,
		MissingSkills:   skills.Difference(jobSkills, resumeSkills),
		Features:        features,
		ModelVersion:    p.engine.ModelVersion(),
		TaxonomyVersion: p.engine.TaxonomyVersion(),
	}
	err = p.stage(ctx, StageProfile, func() error {
		result.ProfileTitle = profile.InferTitle(resumeText.Text, resumeText.Lines)
		if result.ProfileTitle == "" {
			result.ProfileTitle = profile.InferTitle(jobText.Text, jobText.Lines)
		}
		result.ResumeSummary = profile.Summarize(resumeText.Text, p.summaryLength)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Parse extracts contact fields, skills, a title, a preview and an ATS report
// from resume. job is optional; when given, its skills and keywords are used.
func (p *Pipeline) Parse(ctx context.Context, resume types.Document, job string) (*types.ParseResult, error) {
	start := time.Now()
	result, err := p.parse(ctx, resume, job)
	if err != nil {
		err = p.fail(ctx, OperationParse, err)
	}
	p.observer.RecordRequest(ctx, OperationParse, time.Since(start), err)
	return result, err
}

func (p *Pipeline) parse(ctx context.Context, resume types.Document, job string) (*types.ParseResult, error) {
	if err := validateResume(resume); err != nil {
		return nil, err
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resumeText, err := p.normalizeResume(ctx, resume)
	if err != nil {
		return nil, err
	}

	var jobText types.NormalizedText
	hasJob := strings.TrimSpace(job) != ""
	if hasJob {
		if jobText, err = p.normalizeJob(ctx, job); err != nil {
			return nil, err
		}
	}

	resumeSkills, jobSkills, err := p.extractSkills(ctx, resumeText.Text, jobText.Text)
	if err != nil {
		return nil, err
	}

	result := &types.ParseResult{
		Skills:          resumeSkills,
		Pages:           resumeText.Pages,
		TaxonomyVersion: p.engine.TaxonomyVersion(),
	}
	if hasJob {
		result.JobSkills = jobSkills
	}
	err = p.stage(ctx, StageProfile, func() error {
		result.Contact = profile.ExtractContact(resumeText)
		result.ProfileTitle = profile.InferTitle(resumeText.Text, resumeText.Lines)
		result.Summary = profile.Summarize(resumeText.Text, p.summaryLength)
		result.ATS = profile.CheckATS(resumeText, jobLines(jobText))
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats reports pool, breaker and artifact state.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Pool:            p.pool.Stats(),
		CircuitBreaker:  p.breaker.Stats(),
		RequestTimeout:  p.timeout.String(),
		ModelVersion:    p.engine.ModelVersion(),
		TaxonomyVersion: p.engine.TaxonomyVersion(),
		TaxonomySkills:  p.engine.Taxonomy.Len(),
	}
}

// Healthy reports whether document extraction is accepting work.
func (p *Pipeline) Healthy() bool { return p.breaker.IsHealthy() }

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// normalizeResume runs extraction on the pool behind the breaker.
func (p *Pipeline) normalizeResume(ctx context.Context, doc types.Document) (types.NormalizedText, error) {
	var out types.NormalizedText
	err := p.stage(ctx, StageNormalizeResume, func() error {
		var err error
		out, err = Run(ctx, p.pool, func() (types.NormalizedText, error) {
			return p.breaker.Execute(func() (types.NormalizedText, error) {
				return p.engine.Normalizer.Normalize(ctx, doc)
			})
		})
		return err
	})
	return out, err
}

func (p *Pipeline) normalizeJob(ctx context.Context, job string) (types.NormalizedText, error) {
	var out types.NormalizedText
	err := p.stage(ctx, StageNormalizeJob, func() error {
		var err error
		out, err = p.engine.Normalizer.Normalize(ctx, types.TextInput(job))
		return err
	})
	return out, err
}

// extractSkills runs both extractions concurrently. jobText may be empty.
func (p *Pipeline) extractSkills(ctx context.Context, resumeText, jobText string) (resumeSkills, jobSkills []string, err error) {
	err = p.stage(ctx, StageExtractSkills, func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			resumeSkills = p.engine.Taxonomy.Extract(resumeText)
			return gctx.Err()
		})
		g.Go(func() error {
			jobSkills = p.engine.Taxonomy.Extract(jobText)
			return gctx.Err()
		})
		return g.Wait()
	})
	return resumeSkills, jobSkills, err
}

// stage times fn and reports it to the observer.
func (p *Pipeline) stage(ctx context.Context, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.observer.RecordStage(ctx, stage, elapsed, err)
	p.logger.Debug("Pipeline stage finished",
		"request_id", RequestID(ctx),
		"stage", string(stage),
		"duration_ms", elapsed.Milliseconds(),
		"failed", err != nil)
	return err
}

// fail converts err to a typed error and logs it. Caller mistakes are logged
// at debug level; everything else with full detail.
func (p *Pipeline) fail(ctx context.Context, operation string, err error) error {
	appErr := errors.Wrap(err, errors.ErrCodePipelineFailed, "failed to process request")
	if stderrors.Is(err, context.Canceled) {
		appErr = errors.NewInternalError(errors.ErrCodePipelineFailed, "request was cancelled", err)
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeExtraction:
		p.logger.Debug("Pipeline rejected input",
			"request_id", RequestID(ctx),
			"operation", operation,
			"type", string(appErr.Type),
			"code", appErr.Code,
			"message", appErr.Message)
	default:
		p.logger.LogError(appErr, "Pipeline request failed",
			"request_id", RequestID(ctx),
			"operation", operation)
	}
	return appErr
}

func validateResume(doc types.Document) error {
	switch doc.Source {
	case types.SourceText:
		if strings.TrimSpace(doc.Text) == "" {
			return errors.NewValidationError(errors.ErrCodeEmptyInput, "resume text is empty", nil)
		}
	case types.SourceFile:
		if len(doc.Data) == 0 {
			return errors.NewValidationError(errors.ErrCodeEmptyInput, "resume document is empty", nil).
				WithContext("file", doc.Name)
		}
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume input has no source", nil)
	}
	return nil
}

func jobLines(job types.NormalizedText) []string {
	if len(job.Lines) > 0 {
		return job.Lines
	}
	if job.Text != "" {
		return []string{job.Text}
	}
	return nil
}
