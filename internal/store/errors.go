package store

import apperrors "github.com/quadroapp/quadro-server/internal/errors"

// Sentinel errors returned by store implementations. These alias the
// shared coded errors so services and handlers match on one taxonomy.
var (
	ErrNotFound        = apperrors.ErrNotFound
	ErrAlreadyExists   = apperrors.ErrAlreadyExists
	ErrVersionConflict = apperrors.ErrVersionConflict
	ErrUnavailable     = apperrors.ErrUnavailable
)
