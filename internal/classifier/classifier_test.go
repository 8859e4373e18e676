package classifier

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/errors"
	"resumatch/internal/similarity"
	"resumatch/internal/types"
)

func identityModel() Model {
	return Model{
		Version:    "test-1",
		Features:   []string{FeatureOverlapRatio},
		Mean:       []float64{0},
		Scale:      []float64{1},
		Weights:    []float64{4},
		Bias:       -2,
		Threshold:  0.5,
		Vectorizer: similarity.DefaultVectorizerConfig(),
	}
}

func TestClassifyDecisionRule(t *testing.T) {
	c, err := New(identityModel())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		ratio     float64
		wantLabel types.Prediction
	}{
		{name: "well above threshold", ratio: 1, wantLabel: types.PredictionFit},
		{name: "exactly at threshold is not fit", ratio: 0.5, wantLabel: types.PredictionNotFit},
		{name: "below threshold", ratio: 0, wantLabel: types.PredictionNotFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := types.FeatureVector{OverlapRatio: tt.ratio}
			label, confidence := c.Classify(fv)
			if label != tt.wantLabel {
				t.Errorf("Classify() label = %q, want %q", label, tt.wantLabel)
			}
			p := c.Probability(fv)
			want := p
			if label == types.PredictionNotFit {
				want = 1 - p
			}
			if confidence != want {
				t.Errorf("confidence = %v, want %v", confidence, want)
			}
			if confidence < 0.5 || confidence > 1 {
				t.Errorf("confidence = %v, want within [0.5,1] at threshold 0.5", confidence)
			}
		})
	}
}

func TestWithThresholdOverridesArtifact(t *testing.T) {
	fv := types.FeatureVector{OverlapRatio: 0.75} // p = sigmoid(1) ≈ 0.731

	c, err := New(identityModel(), WithThreshold(0.8))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Threshold() != 0.8 {
		t.Errorf("Threshold() = %v, want 0.8", c.Threshold())
	}
	if label, _ := c.Classify(fv); label != types.PredictionNotFit {
		t.Errorf("Classify() = %q, want Not Fit with raised threshold", label)
	}

	c, err = New(identityModel(), WithThreshold(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if label, _ := c.Classify(fv); label != types.PredictionFit {
		t.Errorf("Classify() = %q, want Fit with artifact threshold", label)
	}

	if _, err := New(identityModel(), WithThreshold(1.5)); !errors.IsType(err, errors.ErrorTypeClassifierUnavailable) {
		t.Errorf("New() with threshold 1.5 error = %v, want classifier unavailable", err)
	}
}

func TestMissingThresholdDefaultsToHalf(t *testing.T) {
	m := identityModel()
	m.Threshold = 0
	c, err := New(m)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Threshold() != 0.5 {
		t.Errorf("Threshold() = %v, want 0.5", c.Threshold())
	}
}

func TestModelValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{name: "missing version", mutate: func(m *Model) { m.Version = "" }},
		{name: "no features", mutate: func(m *Model) { m.Features = nil; m.Mean = nil; m.Scale = nil; m.Weights = nil }},
		{name: "dimension mismatch", mutate: func(m *Model) { m.Weights = []float64{1, 2} }},
		{name: "unknown feature", mutate: func(m *Model) { m.Features = []string{"years_experience"} }},
		{name: "zero scale", mutate: func(m *Model) { m.Scale = []float64{0} }},
		{name: "nan weight", mutate: func(m *Model) { m.Weights = []float64{math.NaN()} }},
		{name: "threshold out of range", mutate: func(m *Model) { m.Threshold = 1 }},
		{name: "bad vectorizer", mutate: func(m *Model) { m.Vectorizer.Dimension = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := identityModel()
			tt.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
			if _, err := New(m); !errors.IsType(err, errors.ErrorTypeClassifierUnavailable) {
				t.Errorf("New() error = %v, want classifier unavailable", err)
			}
		})
	}
}

func TestLoadFailuresAreUnavailable(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte(`{"version": "x", "features": [`), 0600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{corrupt, filepath.Join(dir, "missing.json")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := Load(path)
			if !errors.IsType(err, errors.ErrorTypeClassifierUnavailable) {
				t.Fatalf("Load() error = %v, want classifier unavailable", err)
			}
			appErr, _ := errors.As(err)
			if appErr.Context["path"] != path {
				t.Errorf("error context path = %v, want %s", appErr.Context["path"], path)
			}
		})
	}
}

func TestDefaultModelScenarios(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(default) error = %v", err)
	}
	if c.Version() == "" {
		t.Error("default model has no version")
	}
	if c.VectorizerConfig().Dimension <= 0 {
		t.Error("default model has no vectorizer dimension")
	}

	tests := []struct {
		name string
		fv   types.FeatureVector
		want types.Prediction
	}{
		{
			name: "strong overlap",
			fv:   types.FeatureVector{SimilarityScore: 0.47, ResumeSkillCount: 3, JobSkillCount: 2, OverlapCount: 2, OverlapRatio: 1},
			want: types.PredictionFit,
		},
		{
			name: "no overlap",
			fv:   types.FeatureVector{SimilarityScore: 0, ResumeSkillCount: 1, JobSkillCount: 2},
			want: types.PredictionNotFit,
		},
		{
			name: "no skills at all",
			fv:   types.FeatureVector{},
			want: types.PredictionNotFit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, confidence := c.Classify(tt.fv)
			if got != tt.want {
				t.Errorf("Classify() = %q (p=%v), want %q", got, c.Probability(tt.fv), tt.want)
			}
			if confidence < 0.5 || confidence > 1 {
				t.Errorf("confidence = %v out of range", confidence)
			}
		})
	}
}

func TestSigmoidIsStable(t *testing.T) {
	for _, z := range []float64{-1000, -30, 0, 30, 1000} {
		p := sigmoid(z)
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Errorf("sigmoid(%v) = %v", z, p)
		}
	}
	if sigmoid(0) != 0.5 {
		t.Errorf("sigmoid(0) = %v, want 0.5", sigmoid(0))
	}
}
