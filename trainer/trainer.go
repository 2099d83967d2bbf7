package trainer

import (
	"context"
	"text2phenotype.com/melt/maxent"
)

// Trainer fits classifier parameters on a file of training instances.
type Trainer interface {
	Fit(ctx context.Context, instancesPath string) (*maxent.Model, error)
}
