package domain

import (
	"errors"
	"strings"
	"time"
)

const MaxListLimit = 100

var (
	ErrInvalidUUID      = errors.New("invalid uuid")
	ErrInvalidDateRange = errors.New("start date cannot be after end date")
)

// DateLayout is the wire format for calendar dates in query parameters.
const DateLayout = "2006-01-02"

// Today truncates now to midnight UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
