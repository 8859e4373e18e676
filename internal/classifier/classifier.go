package classifier

import (
	"fmt"
	"math"

	"resumatch/internal/similarity"
	"resumatch/internal/types"
)

// Classifier applies a loaded Model. It is immutable and safe for concurrent use.
type Classifier struct {
	model     Model
	values    []func(types.FeatureVector) float64
	threshold float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithThreshold overrides the artifact's decision threshold. Zero keeps the
// artifact value.
func WithThreshold(t float64) Option {
	return func(c *Classifier) {
		if t != 0 {
			c.threshold = t
		}
	}
}

// New builds a Classifier from a validated model.
func New(m Model, opts ...Option) (*Classifier, error) {
	if err := m.Validate(); err != nil {
		return nil, unavailable("model artifact is invalid", err)
	}
	c := &Classifier{
		model:     m,
		values:    make([]func(types.FeatureVector) float64, len(m.Features)),
		threshold: m.Threshold,
	}
	if c.threshold == 0 {
		c.threshold = defaultThreshold
	}
	for i, name := range m.Features {
		c.values[i] = featureValues[name]
	}
	for _, opt := range opts {
		opt(c)
	}
	if !validThreshold(c.threshold) {
		return nil, unavailable(fmt.Sprintf("decision threshold %v must be within (0,1)", c.threshold), nil)
	}
	return c, nil
}

// Load reads the model at path (or the built-in model) and builds a Classifier.
// Any failure is a classifier-unavailable error.
func Load(path string, opts ...Option) (*Classifier, error) {
	m, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return New(m, opts...)
}

// Version identifies the loaded model artifact.
func (c *Classifier) Version() string { return c.model.Version }

// Threshold returns the decision threshold in effect.
func (c *Classifier) Threshold() float64 { return c.threshold }

// VectorizerConfig returns the vector space the model expects similarity in.
func (c *Classifier) VectorizerConfig() similarity.VectorizerConfig { return c.model.Vectorizer }

// Probability returns P(Fit) for fv.
func (c *Classifier) Probability(fv types.FeatureVector) float64 {
	z := c.model.Bias
	for i, value := range c.values {
		x := (value(fv) - c.model.Mean[i]) / c.model.Scale[i]
		z += c.model.Weights[i] * x
	}
	return sigmoid(z)
}

// Classify returns Fit when P(Fit) exceeds the threshold. The confidence is
// the probability of the returned label.
func (c *Classifier) Classify(fv types.FeatureVector) (types.Prediction, float64) {
	p := c.Probability(fv)
	if p > c.threshold {
		return types.PredictionFit, p
	}
	return types.PredictionNotFit, 1 - p
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
