package similarity

// Scorer computes text similarity in a shared vector space.
type Scorer struct {
	vectorizer *Vectorizer
}

// NewScorer creates a Scorer over vectorizer.
func NewScorer(vectorizer *Vectorizer) *Scorer {
	return &Scorer{vectorizer: vectorizer}
}

// Score returns the cosine similarity of a and b clipped to [0,1]. It is
// symmetric and returns 0 when either text has no informative terms.
func (s *Scorer) Score(a, b string) float64 {
	return Cosine(s.vectorizer.Vectorize(a), s.vectorizer.Vectorize(b))
}

// Cosine returns the clipped cosine similarity of two normalized vectors.
// Products are accumulated in ascending index order, so argument order never
// changes the result.
func Cosine(a, b Vector) float64 {
	if a.Empty() || b.Empty() {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return clip(dot)
}

func clip(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
