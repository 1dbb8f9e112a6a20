package status

import "errors"

var (
	ErrSyncInFlight     = errors.New("sync: cycle already in flight")
	ErrStoreUnavailable = errors.New("store: unavailable")
)
