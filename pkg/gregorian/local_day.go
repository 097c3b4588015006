package gregorian

import "time"

// LocalDay is a Day bound to the timezone it was observed in.
type LocalDay struct {
	Day      Day
	Location *time.Location
}

// Today derives the local day for now. Callers evaluate it at read time;
// it must not be cached because the day can roll over while suspended.
func Today(now time.Time, location *time.Location) LocalDay {
	if location == nil {
		location = time.UTC
	}
	return LocalDay{Day: From(now, location), Location: location}
}

// NewLocalDay binds day to location.
func NewLocalDay(day Day, location *time.Location) LocalDay {
	if location == nil {
		location = time.UTC
	}
	return LocalDay{Day: day, Location: location}
}

// StartOfDay converts the local day to an absolute instant.
func (l LocalDay) StartOfDay() time.Time {
	return l.Day.StartOfDay(l.Location)
}
