package service

import (
	"errors"
	"fmt"

	"github.com/godilite/feedback-insights/internal/domain"
)

var ErrStorageFailure = errors.New("storage failure")

// storeErr marks err as a storage failure unless it already carries a
// domain meaning. The original error stays reachable through errors.Is.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// isMissing reports whether a lookup failed because the id does not name a
// record, as opposed to the store being unavailable.
func isMissing(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation)
}
