package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Field is a leniently decoded text value. It accepts a JSON string, number,
// bool or null and always holds trimmed text. Objects and arrays decode to "".
type Field string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = ""
			return nil
		}
		*f = Field(strings.TrimSpace(s))
	case 't', 'f':
		v, err := strconv.ParseBool(string(b))
		if err != nil {
			*f = ""
			return nil
		}
		*f = Field(strconv.FormatBool(v))
	case 'n', '{', '[':
		*f = ""
	default:
		// Numbers keep their literal spelling ("70.5", "1e3").
		*f = Field(b)
	}
	return nil
}

// String returns the field text.
func (f Field) String() string {
	return string(f)
}

// Empty reports whether the field holds no text.
func (f Field) Empty() bool {
	return f == ""
}

// Candidates is a leniently decoded list. It accepts an array, a single
// object, or null. Elements that fail to decode are skipped.
type Candidates[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (c *Candidates[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*c = nil
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		for _, elem := range raw {
			var v T
			if err := json.Unmarshal(elem, &v); err != nil {
				continue
			}
			*c = append(*c, v)
		}
	case '{':
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			*c = append(*c, v)
		}
	}
	return nil
}

// ContactCandidate needs at least one of name, phone or email.
type ContactCandidate struct {
	Name    Field `json:"name" validate:"required_without_all=Phone Email"`
	Phone   Field `json:"phone"`
	Email   Field `json:"email"`
	Address Field `json:"address"`
	Notes   Field `json:"notes"`
}

// CredentialCandidate is keyed on website and username.
type CredentialCandidate struct {
	Website  Field `json:"website" validate:"required"`
	Username Field `json:"username" validate:"required"`
	Password Field `json:"password"`
	Notes    Field `json:"notes"`
}

// GoalCandidate carries an optional target date and status as free text.
type GoalCandidate struct {
	Title       Field `json:"title" validate:"required"`
	Description Field `json:"description"`
	TargetDate  Field `json:"target_date"`
	Status      Field `json:"status"`
}

// ScheduleCandidate carries its times as free text; the reconciler
// normalises them.
type ScheduleCandidate struct {
	Title       Field `json:"title" validate:"required"`
	Description Field `json:"description"`
	StartTime   Field `json:"start_time" validate:"required"`
	EndTime     Field `json:"end_time"`
	Location    Field `json:"location"`
}

// NumericalInfoCandidate is a labelled value. Category is a hint only.
type NumericalInfoCandidate struct {
	Category Field `json:"category"`
	Label    Field `json:"label" validate:"required"`
	Value    Field `json:"value" validate:"required"`
	Unit     Field `json:"unit"`
}

// Batch is everything extracted from one message. None of it is trusted.
type Batch struct {
	Contacts      Candidates[ContactCandidate]       `json:"contacts"`
	Credentials   Candidates[CredentialCandidate]    `json:"credentials"`
	Goals         Candidates[GoalCandidate]          `json:"goals"`
	Schedules     Candidates[ScheduleCandidate]      `json:"schedules"`
	NumericalInfo Candidates[NumericalInfoCandidate] `json:"numerical_info"`
	// Reply is the model's own short answer to the user, if any.
	Reply Field `json:"reply"`
}

// Len counts candidates across every list.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Contacts) + len(b.Credentials) + len(b.Goals) + len(b.Schedules) + len(b.NumericalInfo)
}
