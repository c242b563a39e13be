package quota

import "errors"

// ErrQuotaExceeded is returned when a reservation would push usage past the limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")
