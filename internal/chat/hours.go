package chat

import "time"

// BusinessHours describes the office attention window in local Madrid time,
// Monday through Friday.
type BusinessHours struct {
	StartHour int
	EndHour   int
	location  *time.Location
}

func NewBusinessHours(startHour, endHour int) BusinessHours {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		loc = time.UTC
	}
	return BusinessHours{StartHour: startHour, EndHour: endHour, location: loc}
}

func (h BusinessHours) Outside(now time.Time) bool {
	local := now.In(h.location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	hour := local.Hour()
	return hour < h.StartHour || hour >= h.EndHour
}
