package domain

import (
	"context"
	"errors"
)

// RunRequest carries the immutable settings for one import run. Callers
// resolve configuration once and pass a fully populated value; the run never
// re-reads ambient state.
type RunRequest struct {
	DataDir     string
	FilePattern string
	BatchSize   int
	ErrorLogCap int
}

// Service loads activity files into the event store.
type Service interface {
	Run(ctx context.Context, req RunRequest) (*Summary, error)
}

var (
	ErrDataDirNotFound = errors.New("data_dir_not_found")
	ErrInvalidRequest  = errors.New("invalid_import_request")
)
