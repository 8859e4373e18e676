// Package classifier loads the versioned fit model and turns feature vectors
// into a fit label with a confidence.
package classifier

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"resumatch/internal/errors"
	"resumatch/internal/similarity"
	"resumatch/internal/types"
)

//go:embed default_model.json
var defaultModel []byte

const defaultThreshold = 0.5

// Feature names accepted in a model artifact.
const (
	FeatureSimilarityScore  = "similarity_score"
	FeatureOverlapRatio     = "overlap_ratio"
	FeatureOverlapCount     = "overlap_count"
	FeatureResumeSkillCount = "resume_skill_count"
	FeatureJobSkillCount    = "job_skill_count"
)

var featureValues = map[string]func(types.FeatureVector) float64{
	FeatureSimilarityScore:  func(fv types.FeatureVector) float64 { return fv.SimilarityScore },
	FeatureOverlapRatio:     func(fv types.FeatureVector) float64 { return fv.OverlapRatio },
	FeatureOverlapCount:     func(fv types.FeatureVector) float64 { return float64(fv.OverlapCount) },
	FeatureResumeSkillCount: func(fv types.FeatureVector) float64 { return float64(fv.ResumeSkillCount) },
	FeatureJobSkillCount:    func(fv types.FeatureVector) float64 { return float64(fv.JobSkillCount) },
}

// Model is the serialized form of a standardized logistic regression over
// FeatureVector fields, plus the vector space its similarity feature was
// computed in.
type Model struct {
	Version    string                      `json:"version"`
	Features   []string                    `json:"features"`
	Mean       []float64                   `json:"mean"`
	Scale      []float64                   `json:"scale"`
	Weights    []float64                   `json:"weights"`
	Bias       float64                     `json:"bias"`
	Threshold  float64                     `json:"threshold"`
	Vectorizer similarity.VectorizerConfig `json:"vectorizer"`
}

// Validate checks the artifact is internally consistent.
func (m Model) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("model version is required")
	}
	n := len(m.Features)
	if n == 0 {
		return fmt.Errorf("model has no features")
	}
	if len(m.Mean) != n || len(m.Scale) != n || len(m.Weights) != n {
		return fmt.Errorf("model dimension mismatch: %d features, %d means, %d scales, %d weights",
			n, len(m.Mean), len(m.Scale), len(m.Weights))
	}
	seen := make(map[string]bool, n)
	for i, name := range m.Features {
		if _, ok := featureValues[name]; !ok {
			return fmt.Errorf("unknown feature %q", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true
		if !(m.Scale[i] > 0) || math.IsInf(m.Scale[i], 0) {
			return fmt.Errorf("feature %q has non-positive scale %v", name, m.Scale[i])
		}
		if !isFinite(m.Mean[i]) || !isFinite(m.Weights[i]) {
			return fmt.Errorf("feature %q has a non-finite parameter", name)
		}
	}
	if !isFinite(m.Bias) {
		return fmt.Errorf("model bias is not finite")
	}
	if m.Threshold != 0 && !validThreshold(m.Threshold) {
		return fmt.Errorf("model threshold %v must be within (0,1)", m.Threshold)
	}
	return m.Vectorizer.Validate()
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func validThreshold(t float64) bool {
	return t > 0 && t < 1
}

// ParseModel decodes a JSON model artifact.
func ParseModel(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, unavailable("model artifact is corrupt", err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, unavailable("model artifact is invalid", err)
	}
	return m, nil
}

// LoadModel reads the model at path, or the built-in model when path is empty.
func LoadModel(path string) (Model, error) {
	if path == "" {
		return ParseModel(defaultModel)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, unavailable("model artifact could not be read", err).WithContext("path", path)
	}
	m, err := ParseModel(data)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return Model{}, appErr.WithContext("path", path)
		}
		return Model{}, err
	}
	return m, nil
}

func unavailable(message string, cause error) *errors.AppError {
	return errors.NewClassifierUnavailableError(errors.ErrCodeModelUnavailable, message, cause)
}
