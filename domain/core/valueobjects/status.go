package valueobjects

import (
	"bytes"
	"fmt"
)

// Status represents the attendance state of a single record.
// The machine is a fixed total cycle with no terminal state:
// present -> absent -> holiday -> my_absence -> unset -> present -> ...
type Status string

const (
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusHoliday   Status = "holiday"
	StatusMyAbsence Status = "my_absence"
	StatusUnset     Status = "unset"
)

// Next returns the status that follows in the attendance cycle.
// Unknown values are normalized to unset first, so Next is total.
func (s Status) Next() Status {
	switch s {
	case StatusPresent:
		return StatusAbsent
	case StatusAbsent:
		return StatusHoliday
	case StatusHoliday:
		return StatusMyAbsence
	case StatusMyAbsence:
		return StatusUnset
	default:
		return StatusPresent
	}
}

// IsValid checks whether the status is one of the five known states
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHoliday, StatusMyAbsence, StatusUnset:
		return true
	}
	return false
}

// Counted reports whether the status participates in attendance aggregation.
// unset records are excluded from every counter.
func (s Status) Counted() bool {
	return s.IsValid() && s != StatusUnset
}

// ParseStatus converts a raw string into a Status
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
	return s, nil
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// MarshalJSON implements json.Marshaler
func (s Status) MarshalJSON() ([]byte, error) {
	if s == "" {
		s = StatusUnset
	}
	return []byte(`"` + string(s) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Older exports stored null for
// unmarked records, so null and the empty string both map to unset.
func (s *Status) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*s = StatusUnset
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("attendance status must be a string")
	}
	parsed, err := ParseStatus(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
