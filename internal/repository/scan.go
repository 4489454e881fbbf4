package repository

import (
	"fmt"
	"time"

	"kb-service/internal/query"
)

// timestamp scans TIMESTAMPTZ columns (time.Time) as well as the fixed-width
// text SQLite stores.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", value)
	}
}

var timestampLayouts = []string{
	query.TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
