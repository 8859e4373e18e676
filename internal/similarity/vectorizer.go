// Package similarity scores how textually close a resume is to a job
// description using hashed term-frequency vectors and cosine similarity.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"resumatch/internal/tokenize"
)

// VectorizerConfig fixes the vector space. It is stored alongside the
// classifier so scores stay comparable with what the model was fit on.
type VectorizerConfig struct {
	Dimension      int      `json:"dimension"`
	MinTokenLength int      `json:"min_token_length"`
	SublinearTF    bool     `json:"sublinear_tf"`
	ExtraStopWords []string `json:"extra_stop_words,omitempty"`
}

// DefaultVectorizerConfig returns the vector space used when no artifact overrides it.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		Dimension:      4096,
		MinTokenLength: 2,
		SublinearTF:    true,
	}
}

// Validate checks the config describes a usable vector space.
func (c VectorizerConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("vectorizer dimension must be positive, got %d", c.Dimension)
	}
	if c.MinTokenLength < 1 {
		return fmt.Errorf("vectorizer min_token_length must be at least 1, got %d", c.MinTokenLength)
	}
	return nil
}

// Vector is a sparse, L2-normalized, non-negative vector with indices in
// ascending order.
type Vector struct {
	Indices []uint32
	Values  []float64
}

// Empty reports whether the vector has no informative terms.
func (v Vector) Empty() bool { return len(v.Indices) == 0 }

// Vectorizer maps text into a fixed-dimension hashed vector space. It is
// immutable after construction.
type Vectorizer struct {
	cfg       VectorizerConfig
	stopWords map[string]bool
}

// NewVectorizer builds a Vectorizer from cfg.
func NewVectorizer(cfg VectorizerConfig) (*Vectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stop := make(map[string]bool, len(englishStopWords)+len(cfg.ExtraStopWords))
	for _, w := range englishStopWords {
		stop[w] = true
	}
	for _, w := range cfg.ExtraStopWords {
		for _, tok := range tokenize.Tokens(w) {
			stop[tok] = true
		}
	}
	return &Vectorizer{cfg: cfg, stopWords: stop}, nil
}

// Config returns the vectorizer parameters.
func (v *Vectorizer) Config() VectorizerConfig { return v.cfg }

// Terms returns the informative tokens of text: dotted tokens are split,
// then stop words and tokens shorter than the minimum length are dropped.
func (v *Vectorizer) Terms(text string) []string {
	var terms []string
	for _, tok := range tokenize.Tokens(text) {
		for _, part := range tokenize.SplitDotted(tok) {
			if len([]rune(part)) < v.cfg.MinTokenLength || v.stopWords[part] {
				continue
			}
			terms = append(terms, part)
		}
	}
	return terms
}

// Vectorize returns the normalized term-frequency vector of text.
func (v *Vectorizer) Vectorize(text string) Vector {
	counts := make(map[uint32]float64)
	dim := uint64(v.cfg.Dimension)
	for _, term := range v.Terms(text) {
		counts[uint32(xxhash.Sum64String(term)%dim)]++
	}
	if len(counts) == 0 {
		return Vector{}
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float64, len(indices))
	var sumSquares float64
	for i, idx := range indices {
		tf := counts[idx]
		if v.cfg.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		values[i] = tf
		sumSquares += tf * tf
	}
	norm := math.Sqrt(sumSquares)
	for i := range values {
		values[i] /= norm
	}
	return Vector{Indices: indices, Values: values}
}
