package snapshot

import "errors"

// ErrVersionConflict means the remote advanced past the fetched version while
// this run was working; the publish is aborted and retried on the next cycle.
var ErrVersionConflict = errors.New("snapshot version conflict")
