package client

import (
	"errors"

	"github.com/udinmoInc/law/client/internal/dispatch"
	"github.com/udinmoInc/law/client/internal/types"
)

// ErrBackPressure is returned when the internal dispatch queue is full.
var ErrBackPressure = dispatch.ErrQueueFull

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// Shared SDK errors re-exported so callers compare against a single symbol.
var (
	ErrNotFound   = types.ErrNotFound
	ErrConflict   = types.ErrConflict
	ErrNoIdentity = types.ErrNoIdentity
)

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool { return types.IsValidation(err) }
