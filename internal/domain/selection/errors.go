package selection

import "errors"

// Sentinel error kinds for match selection.
var (
	ErrInvalidPeriod = errors.New("invalid selection period")
)
