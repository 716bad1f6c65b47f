package cerr

import (
	"errors"
	"fmt"

	"github.com/sadreammm/Helply/pkg/models"
)

// WrapReadError classifies a lookup failure against a store.
func WrapReadError(target string, err error) error {
	switch {
	case errors.Is(err, models.ErrEmployeeNotFound),
		errors.Is(err, models.ErrTaskNotFound),
		errors.Is(err, models.ErrDefinitionNotFound):
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	case errors.Is(err, models.ErrNotValid):
		return NewError(InvalidArgument, fmt.Sprintf("invalid %s", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapWriteError(target string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotValid):
		return NewError(InvalidArgument, fmt.Sprintf("invalid %s", target), err)
	case errors.Is(err, models.ErrEmployeeNotFound), errors.Is(err, models.ErrTaskNotFound):
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to write %s: %w", target, err))
}
