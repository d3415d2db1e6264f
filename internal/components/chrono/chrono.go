package chrono

import (
	"time"
)

// Timezone is the timezone the timetable site publishes its schedule in.
const Timezone = "Europe/Moscow"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the timetable's timezone.
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() (StandardTime, error) {
	location, err := time.LoadLocation(Timezone)
	if err != nil {
		return StandardTime{}, err
	}
	return StandardTime{location: location}, nil
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardTime) Location() *time.Location {
	return s.location
}

// FixedTime always returns the same instant, it is used in tests.
type FixedTime struct {
	Instant time.Time
}

func (f FixedTime) Now() time.Time {
	return f.Instant
}

func (f FixedTime) Location() *time.Location {
	return f.Instant.Location()
}
