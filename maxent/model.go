package maxent

import (
	"fmt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
	"text2phenotype.com/melt/types"
)

// Model is a multiclass log-linear classifier. Weights has one row per known feature and one
// column per class. A Model is read-only once built and safe for concurrent use.
type Model struct {
	Classes     []string
	Feature2Int map[string]int
	Weights     *mat.Dense
	Bias        []float64
}

// NewModel checks the parameter shapes and builds a Model. weights may be nil when no feature
// is known.
func NewModel(classes []string, feature2int map[string]int, weights *mat.Dense, bias []float64) (*Model, error) {
	m := &Model{
		Classes:     classes,
		Feature2Int: feature2int,
		Weights:     weights,
		Bias:        bias,
	}
	if m.Feature2Int == nil {
		m.Feature2Int = map[string]int{}
	}
	if m.Bias == nil {
		m.Bias = make([]float64, len(classes))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("model has no classes")
	}
	if len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("bias has %d values for %d classes", len(m.Bias), len(m.Classes))
	}

	rows := 0
	if m.Weights != nil {
		var cols int
		rows, cols = m.Weights.Dims()
		if cols != len(m.Classes) {
			return fmt.Errorf("weight rows have %d columns for %d classes", cols, len(m.Classes))
		}
	}
	if rows != len(m.Feature2Int) {
		return fmt.Errorf("feature map has %d entries for %d weight rows", len(m.Feature2Int), rows)
	}

	seen := make([]bool, rows)
	for name, row := range m.Feature2Int {
		if row < 0 || row >= rows {
			return fmt.Errorf("feature %q maps to row %d out of %d", name, row, rows)
		}
		if seen[row] {
			return fmt.Errorf("feature %q maps to row %d twice", name, row)
		}
		seen[row] = true
	}
	return nil
}

func (m *Model) NumFeatures() int {
	return len(m.Feature2Int)
}

// scores sums the bias and the weight rows of the known features of fv.
func (m *Model) scores(fv []string) []float64 {
	scores := make([]float64, len(m.Bias))
	copy(scores, m.Bias)
	for _, f := range fv {
		row, ok := m.Feature2Int[f]
		if !ok {
			continue
		}
		floats.Add(scores, m.Weights.RawRowView(row))
	}
	return scores
}

// BestClass returns the class with the highest score; ties go to the first class.
func (m *Model) BestClass(fv []string) string {
	return m.Classes[floats.MaxIdx(m.scores(fv))]
}

// ClassDistribution returns the probability of every class, in class order. Scores are
// exponentiated as is: very large scores overflow to +Inf and give NaN probabilities.
func (m *Model) ClassDistribution(fv []string) []types.LabelProb {
	scores := m.scores(fv)
	z := 0.0
	for i, score := range scores {
		scores[i] = math.Exp(score)
		z += scores[i]
	}

	distribution := make([]types.LabelProb, len(scores))
	for i, score := range scores {
		distribution[i] = types.LabelProb{Label: m.Classes[i], Prob: score / z}
	}
	return distribution
}
