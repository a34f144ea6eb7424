package study

import "time"

// StoreTime normalizes a timestamp to what the store can represent exactly:
// UTC at microsecond precision.
func StoreTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func StoreTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := StoreTime(*t)
	return &v
}
