// Package pipeline runs the resume/job matching flow: normalize both inputs,
// extract skills, score similarity, classify, and assemble the result.
package pipeline

import (
	"resumatch/internal/classifier"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/normalize"
	"resumatch/internal/similarity"
	"resumatch/internal/skills"
)

// Engine bundles the artifacts every request reads. It is built once at
// startup and never mutated, so any number of requests may share it.
type Engine struct {
	Taxonomy   *skills.Taxonomy
	Scorer     *similarity.Scorer
	Classifier *classifier.Classifier
	Normalizer *normalize.Normalizer
}

// NewEngine wires the scorer to the classifier's vectorizer parameters so
// similarity is computed the way the model was trained.
func NewEngine(tax *skills.Taxonomy, clf *classifier.Classifier, nz *normalize.Normalizer) (*Engine, error) {
	vectorizer, err := similarity.NewVectorizer(clf.VectorizerConfig())
	if err != nil {
		return nil, errors.NewClassifierUnavailableError(errors.ErrCodeModelUnavailable,
			"model vectorizer parameters are invalid", err)
	}
	if nz == nil {
		nz = normalize.New()
	}
	return &Engine{
		Taxonomy:   tax,
		Scorer:     similarity.NewScorer(vectorizer),
		Classifier: clf,
		Normalizer: nz,
	}, nil
}

// LoadEngine loads the taxonomy and model named by cfg, falling back to the
// embedded artifacts for empty paths. Errors are fatal to the caller.
func LoadEngine(cfg *config.Config) (*Engine, error) {
	tax, err := skills.LoadTaxonomy(cfg.Artifacts.TaxonomyFile)
	if err != nil {
		return nil, err
	}
	clf, err := classifier.Load(cfg.Artifacts.ModelFile, classifier.WithThreshold(cfg.Classifier.Threshold))
	if err != nil {
		return nil, err
	}
	nz := normalize.New(normalize.WithMaxBytes(int(cfg.Pipeline.MaxDocumentBytes)))
	return NewEngine(tax, clf, nz)
}

// DefaultEngine builds an Engine from the embedded artifacts.
func DefaultEngine() (*Engine, error) {
	return LoadEngine(config.Default())
}

// ModelVersion reports the classifier artifact version.
func (e *Engine) ModelVersion() string { return e.Classifier.Version() }

// TaxonomyVersion reports the skill taxonomy version.
func (e *Engine) TaxonomyVersion() string { return e.Taxonomy.Version() }
