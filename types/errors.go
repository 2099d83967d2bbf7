package types

import (
	"errors"
	"fmt"
)

// ErrFatalConfig marks load-time failures of model, lexicon or configuration artifacts.
// A process that gets it must not start tagging.
var ErrFatalConfig = errors.New("fatal configuration error")

type ArtifactError struct {
	Artifact string
	Path     string
	Err      error
}

func NewArtifactError(artifact string, path string, err error) *ArtifactError {
	return &ArtifactError{Artifact: artifact, Path: path, Err: err}
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s: failed to load %s from %s: %v", ErrFatalConfig, e.Artifact, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

func (e *ArtifactError) Is(target error) bool {
	return target == ErrFatalConfig
}
