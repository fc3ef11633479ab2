package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FilterField selects which patient attribute a search runs against. The
// dischargeDATE/recordedDATE spellings come from the search form and are part
// of the request contract.
type FilterField string

const (
	FilterName          FilterField = "name"
	FilterPhone         FilterField = "phone"
	FilterDiagnosis     FilterField = "diagnosis"
	FilterDischargeDate FilterField = "dischargeDATE"
	FilterRecordedDate  FilterField = "recordedDATE"
	FilterAll           FilterField = "all"
)

// ParseFilterField maps a raw form value to a filter field. Anything
// unrecognized falls back to the all-fields search rather than failing.
func ParseFilterField(raw string) FilterField {
	switch FilterField(raw) {
	case FilterName, FilterPhone, FilterDiagnosis, FilterDischargeDate, FilterRecordedDate:
		return FilterField(raw)
	default:
		return FilterAll
	}
}

func (f FilterField) IsDate() bool {
	return f == FilterDischargeDate || f == FilterRecordedDate
}

// dateLayout is the day format users type into the search box.
const dateLayout = "02.01.2006"

// DayRange parses a dd.MM.yyyy value into the half-open interval covering
// that calendar day.
func DayRange(raw string) (from, to time.Time, err error) {
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse search date %q: %w", raw, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// SearchQuery is a resolved search request handed to the store. Exactly one of
// Text or the From/To pair is meaningful, depending on Field. A non-nil
// DoctorID restricts results to that doctor's patients.
type SearchQuery struct {
	Field    FilterField
	Text     string
	From, To time.Time
	DoctorID *uuid.UUID
}
