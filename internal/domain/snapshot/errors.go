package snapshot

import "errors"

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidPeriod    = errors.New("period must be the first day of a month")
	ErrNoPeriodsBuilt   = errors.New("no snapshot could be built for any period")
	ErrJobNotFound      = errors.New("import job not found")
)
