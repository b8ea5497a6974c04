package repository

import (
	"errors"

	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"gorm.io/gorm"
)

// translate maps a GORM error onto the error taxonomy.
func translate(op, resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierrors.NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierrors.Conflict(apierrors.ErrCodeAlreadyExists, resource+" already exists")
	default:
		return apierrors.Store(op, err)
	}
}
