package types

import (
	"errors"
	"fmt"
	"strings"
)

// ------------------------------
// Shared Errors
// ------------------------------

// ErrNotFound is returned when a referenced user, post or chat does
// not exist on the backend.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by the gateway when a write collapsed into
// an already existing row (for example a duplicate like). Callers
// treat it as success.
var ErrConflict = errors.New("write collapsed into existing record")

// ErrNoIdentity is returned by operations that require a signed-in
// identity when none is present.
var ErrNoIdentity = errors.New("no identity signed in")

// ValidationError rejects malformed input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ------------------------------
// Validation helpers
// ------------------------------

// ValidateIDPresent rejects empty identifiers.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// ValidateContent rejects content that is empty after trimming.
func ValidateContent(content, field string) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// Validate rejects filter combinations that name more than one scope.
func (f FeedFilter) Validate() error {
	set := 0
	if f.FollowingOf != "" {
		set++
	}
	if f.GroupID != "" {
		set++
	}
	if f.AuthorID != "" {
		set++
	}
	if set > 1 {
		return &ValidationError{Field: "filter", Reason: "at most one of following, group, author may be set"}
	}
	return nil
}
