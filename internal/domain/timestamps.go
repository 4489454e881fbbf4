package domain

import "time"

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
	yearLayout  = "2006"
)

func DayFormat(t time.Time) string   { return t.UTC().Format(dayLayout) }
func MonthFormat(t time.Time) string { return t.UTC().Format(monthLayout) }
func YearFormat(t time.Time) string  { return t.UTC().Format(yearLayout) }

// StampCreation fills the ingestion timestamps and their range-filter components.
func (e *Entity) StampCreation(now time.Time) {
	now = now.UTC()
	e.CreatedAt = now
	e.CreatedAtDay = DayFormat(now)
	e.CreatedAtMonth = MonthFormat(now)
	e.CreatedAtYear = YearFormat(now)
	e.UpdatedAt = now
}
