package simdex

import (
	"github.com/kailas-cloud/simdex/internal/domain"
	trainuc "github.com/kailas-cloud/simdex/internal/usecase/train"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidConfiguration = domain.ErrInvalidConfiguration
	ErrInvalidInput         = domain.ErrInvalidInput
	ErrNotTrained           = domain.ErrNotTrained
	ErrSnapshotNotFound     = domain.ErrSnapshotNotFound
	ErrStorageDisabled      = trainuc.ErrStorageDisabled
)

// ConfigurationError names the rejected option. It matches ErrInvalidConfiguration.
type ConfigurationError = domain.ConfigurationError

// InputShapeError locates a malformed document or snapshot entry.
// It matches ErrInvalidInput.
type InputShapeError = domain.InputShapeError
