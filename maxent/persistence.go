package maxent

import (
	"encoding/json"
	"gonum.org/v1/gonum/mat"
	"os"
	"path/filepath"
	"text2phenotype.com/melt/types"
)

const (
	ClassesFile     = "classes.json"
	FeatureMapFile  = "feature_map.json"
	WeightsFile     = "weights.bin"
	BiasWeightsFile = "bias_weights.bin"
)

// Save writes the four model artifacts into dir, which must exist.
func (m *Model) Save(dir string) error {
	classes, err := json.Marshal(m.Classes)
	if err != nil {
		return err
	}
	featureMap, err := json.Marshal(m.Feature2Int)
	if err != nil {
		return err
	}

	var weights []byte
	if m.Weights != nil {
		if weights, err = m.Weights.MarshalBinary(); err != nil {
			return err
		}
	}

	bias := make([]float64, len(m.Bias))
	copy(bias, m.Bias)
	biasWeights, err := mat.NewVecDense(len(bias), bias).MarshalBinary()
	if err != nil {
		return err
	}

	artifacts := []struct {
		name string
		buf  []byte
	}{
		{ClassesFile, classes},
		{FeatureMapFile, featureMap},
		{WeightsFile, weights},
		{BiasWeightsFile, biasWeights},
	}
	for _, artifact := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, artifact.name), artifact.buf, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a model saved by Save. Every failure is a fatal configuration error.
func Load(dir string) (*Model, error) {
	var classes []string
	if err := readJSON(dir, ClassesFile, &classes); err != nil {
		return nil, err
	}

	var feature2int map[string]int
	if err := readJSON(dir, FeatureMapFile, &feature2int); err != nil {
		return nil, err
	}

	weightsPath := filepath.Join(dir, WeightsFile)
	buf, err := os.ReadFile(weightsPath)
	if err != nil {
		return nil, types.NewArtifactError("model weights", weightsPath, err)
	}
	var weights *mat.Dense
	if len(buf) > 0 {
		weights = &mat.Dense{}
		if err := weights.UnmarshalBinary(buf); err != nil {
			return nil, types.NewArtifactError("model weights", weightsPath, err)
		}
	}

	biasPath := filepath.Join(dir, BiasWeightsFile)
	buf, err = os.ReadFile(biasPath)
	if err != nil {
		return nil, types.NewArtifactError("model bias", biasPath, err)
	}
	var vec mat.VecDense
	if err := vec.UnmarshalBinary(buf); err != nil {
		return nil, types.NewArtifactError("model bias", biasPath, err)
	}
	bias := make([]float64, vec.Len())
	for i := range bias {
		bias[i] = vec.AtVec(i)
	}

	m, err := NewModel(classes, feature2int, weights, bias)
	if err != nil {
		return nil, types.NewArtifactError("model", dir, err)
	}
	return m, nil
}

func readJSON(dir string, name string, v interface{}) error {
	path := filepath.Join(dir, name)
	buf, err := os.ReadFile(path)
	if err != nil {
		return types.NewArtifactError("model "+name, path, err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return types.NewArtifactError("model "+name, path, err)
	}
	return nil
}
