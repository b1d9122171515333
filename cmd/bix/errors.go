package main

import (
	"errors"

	"github.com/matsen/bix/internal/normalize"
	"github.com/matsen/bix/internal/publication"
)

// exitCodeFor maps dataset errors to ExitDataError and everything else to ExitError.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, normalize.ErrEmpty),
		errors.Is(err, normalize.ErrMissingColumns),
		errors.Is(err, normalize.ErrNoValidRows),
		errors.Is(err, publication.ErrDuplicateID),
		errors.Is(err, publication.ErrNegativeCitations):
		return ExitDataError
	default:
		return ExitError
	}
}
