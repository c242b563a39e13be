package quota

import "time"

// Record is the per-user byte ledger: bytes counted against a fixed limit.
type Record struct {
	Username   string    `json:"-"`
	UsedBytes  int64     `json:"used"`
	LimitBytes int64     `json:"limit"`
	UpdatedAt  time.Time `json:"-"`
}

// Remaining returns the unreserved allowance, never negative.
func (r Record) Remaining() int64 {
	if r.UsedBytes >= r.LimitBytes {
		return 0
	}
	return r.LimitBytes - r.UsedBytes
}
