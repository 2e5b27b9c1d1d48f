package icss

import (
	"time"

	"go.brendoncarroll.net/tai64"
)

// tai64Epoch is the TAI64 label of the Unix epoch, ignoring leap seconds.
const tai64Epoch = 1 << 62

// Timestamp is a TAI64N label.
type Timestamp struct {
	Seconds uint64 `json:"s"`
	Nanos   uint32 `json:"ns"`
}

func now() Timestamp {
	ts := tai64.Now()
	return Timestamp{Seconds: uint64(ts.Seconds), Nanos: uint32(ts.Nanoseconds)}
}

// Time converts the label to a time.Time.
// The result is ahead of UTC by the number of leap seconds.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts.Seconds-tai64Epoch), int64(ts.Nanos)).UTC()
}

func (ts Timestamp) IsZero() bool {
	return ts == Timestamp{}
}
