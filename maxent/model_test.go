package maxent

import (
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"math"
	"strings"
	"testing"
)

const sampleMegam = `***NAMEDLABELSIDS*** DET NC V
**BIAS** 0.1 0.2 -0.3
wd=le 2.0 -1.0 -1.0
wd=chat -1.0 1.5 0.0
suff1=t=1 0.0 0.5 0.5
ptag-1=DET -0.5 2.0 0.0
`

func sampleModel(t *testing.T) *Model {
	m, err := ParseMegam(strings.NewReader(sampleMegam))
	require.NoError(t, err)
	return m
}

func sumProbs(m *Model, fv []string) float64 {
	sum := 0.0
	for _, lp := range m.ClassDistribution(fv) {
		sum += lp.Prob
	}
	return sum
}

func TestClassDistribution(t *testing.T) {
	m := sampleModel(t)
	vectors := [][]string{
		nil,
		{"wd=le"},
		{"wd=chat", "suff1=t=1", "ptag-1=DET"},
		{"wd=chat", "wd=chat"},
		{"wd=inconnu", "ptag-1=DET"},
	}

	for _, fv := range vectors {
		distribution := m.ClassDistribution(fv)
		require.Len(t, distribution, 3)
		require.InDelta(t, 1.0, sumProbs(m, fv), 1e-12)

		best := 0
		for i, lp := range distribution {
			require.Equal(t, m.Classes[i], lp.Label)
			if lp.Prob > distribution[best].Prob {
				best = i
			}
		}
		require.Equal(t, distribution[best].Label, m.BestClass(fv), "vector %v", fv)
	}

	require.Equal(t, "DET", m.BestClass([]string{"wd=le"}))
	require.Equal(t, "NC", m.BestClass([]string{"wd=chat", "ptag-1=DET"}))
}

func TestDuplicateFeaturesCountTwice(t *testing.T) {
	m := sampleModel(t)
	once := m.ClassDistribution([]string{"wd=chat"})
	twice := m.ClassDistribution([]string{"wd=chat", "wd=chat"})
	require.Greater(t, twice[1].Prob, once[1].Prob)
}

func TestUnknownFeaturesGiveSoftmaxOfBias(t *testing.T) {
	m := sampleModel(t)
	distribution := m.ClassDistribution([]string{"wd=souris", "pref1=s", "lex=unk"})

	z := math.Exp(0.1) + math.Exp(0.2) + math.Exp(-0.3)
	require.InDelta(t, math.Exp(0.1)/z, distribution[0].Prob, 1e-12)
	require.InDelta(t, math.Exp(0.2)/z, distribution[1].Prob, 1e-12)
	require.InDelta(t, math.Exp(-0.3)/z, distribution[2].Prob, 1e-12)
	require.Equal(t, "NC", m.BestClass([]string{"wd=souris"}))
}

func TestBestClassTiesGoToFirstClass(t *testing.T) {
	m, err := NewModel([]string{"A", "B", "C"}, nil, nil, []float64{1, 3, 3})
	require.NoError(t, err)
	require.Equal(t, "B", m.BestClass(nil))

	m, err = NewModel([]string{"A", "B"}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "A", m.BestClass([]string{"anything"}))
	require.InDelta(t, 0.5, m.ClassDistribution(nil)[1].Prob, 1e-12)
}

// Scores are exponentiated without subtracting the maximum, so extreme weights overflow.
func TestClassDistributionOverflowIsAKnownLimitation(t *testing.T) {
	weights := mat.NewDense(1, 2, []float64{800, 1})
	m, err := NewModel([]string{"A", "B"}, map[string]int{"huge": 0}, weights, nil)
	require.NoError(t, err)

	distribution := m.ClassDistribution([]string{"huge"})
	require.True(t, math.IsNaN(distribution[0].Prob))
	require.Equal(t, 0.0, distribution[1].Prob)
	require.Equal(t, "A", m.BestClass([]string{"huge"}), "best class does not exponentiate")
}

func TestNewModelValidation(t *testing.T) {
	weights := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := NewModel(nil, nil, nil, nil)
	require.Error(t, err)

	_, err = NewModel([]string{"A", "B"}, map[string]int{"f": 0, "g": 1}, weights, []float64{0})
	require.Error(t, err, "bias length")

	_, err = NewModel([]string{"A", "B", "C"}, map[string]int{"f": 0, "g": 1}, weights, nil)
	require.Error(t, err, "column count")

	_, err = NewModel([]string{"A", "B"}, map[string]int{"f": 0}, weights, nil)
	require.Error(t, err, "row count")

	_, err = NewModel([]string{"A", "B"}, map[string]int{"f": 0, "g": 2}, weights, nil)
	require.Error(t, err, "row out of range")

	_, err = NewModel([]string{"A", "B"}, map[string]int{"f": 1, "g": 1}, weights, nil)
	require.Error(t, err, "shared row")

	m, err := NewModel([]string{"A", "B"}, map[string]int{"f": 1, "g": 0}, weights, nil)
	require.NoError(t, err)
	require.Equal(t, 2, m.NumFeatures())
}
