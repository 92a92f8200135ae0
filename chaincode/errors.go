/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Sentinel errors; callers match them with errors.Is.
var (
	// ErrReferenceNotFound marks a record reference that does not resolve.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrNotFound marks a lookup key (QR code, provenance id) that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity marks an index that resolves to a missing target. A prior
	// invariant was violated; do not retry.
	ErrIntegrity = errors.New("ledger integrity violation")
)

// ValidationError reports every business-rule check that failed for one
// operation. The operation wrote nothing.
type ValidationError struct {
	errs *multierror.Error
}

func newValidationError(errs *multierror.Error) *ValidationError {
	return &ValidationError{errs: errs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons(), "; ")
}

// Reasons lists the individual failures in check order.
func (e *ValidationError) Reasons() []string {
	reasons := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		reasons = append(reasons, err.Error())
	}
	return reasons
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
