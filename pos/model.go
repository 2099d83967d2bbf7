package pos

import "text2phenotype.com/melt/types"

// Classifier scores a feature vector. maxent.Model implements it.
type Classifier interface {
	ClassDistribution(fv []string) []types.LabelProb
	BestClass(fv []string) string
}
