package paste

import "time"

// Expired reports whether rec has a destroy time that is not after now.
func Expired(rec *Record, now time.Time) bool {
	return rec.DestroyTime != nil && !now.Before(*rec.DestroyTime)
}

// ExpiresIn returns now plus seconds, or nil when seconds is not positive.
func ExpiresIn(now time.Time, seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}

	t := now.Add(time.Duration(seconds) * time.Second)

	return &t
}
