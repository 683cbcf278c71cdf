package store

import (
	"fmt"
	"time"
)

// Constants

// localTimeLayout is the ISO-8601-like local date-time
// form timestamps take both on disk and on the wire.
const localTimeLayout = "2006-01-02T15:04:05"

// Structs

// LocalTime is a creation instant that serializes as a
// local date-time string without zone information.
type LocalTime struct {
	time.Time
}

// Functions

// NewLocalTime truncates the supplied instant
// to the second resolution of the serialized form.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{t.Truncate(time.Second)}
}

// String renders the instant in the serialized layout.
func (t LocalTime) String() string {
	return t.Format(localTimeLayout)
}

// MarshalJSON implements json.Marshaler.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.Format(localTimeLayout))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *LocalTime) UnmarshalJSON(data []byte) error {

	if string(data) == "null" {
		return nil
	}

	if (len(data) < 2) || (data[0] != '"') || (data[len(data)-1] != '"') {
		return fmt.Errorf("timestamp is no JSON string: %s", data)
	}

	parsed, err := time.ParseInLocation(localTimeLayout, string(data[1:(len(data)-1)]), time.Local)
	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}
