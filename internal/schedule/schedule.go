// Package schedule stores the recognition start/stop calendar as a
// JSON file and decides, minute by minute, which entries are due.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Action is what a due entry asks the caption engine to do.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// DefaultTimezone applies to entries that do not carry their own.
const DefaultTimezone = "America/New_York"

const dateLayout = "2006-01-02"

const (
	recurrenceOneTime = "one-time"
	recurrenceWeekly  = "weekly"
	recurrenceMonthly = "monthly"
	recurrenceYearly  = "yearly"
)

const (
	endingNever            = "never"
	endingAfterOccurrences = "after_occurrences"
	endingOnDate           = "on_date"
)

// RecurrenceTypes and EndingTypes are the values Validate accepts, in
// the order the dashboard presents them.
var (
	RecurrenceTypes = []string{recurrenceOneTime, recurrenceWeekly, recurrenceMonthly, recurrenceYearly}
	EndingTypes     = []string{endingNever, endingAfterOccurrences, endingOnDate}
)

var clockFormat = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Entry is one scheduled recognition window. Date doubles as the
// entry's identity: storing an entry for an existing date replaces it.
type Entry struct {
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	StopTime           string `json:"stop_time"`
	Timezone           string `json:"timezone"`
	PauseEvent         bool   `json:"pause_event"`
	Repeats            bool   `json:"repeats"`
	RecurrenceType     string `json:"recurrence_type"`
	RecurrenceInterval int    `json:"recurrence_interval"`
	EndingType         string `json:"ending_type"`
	EndingOccurrences  int    `json:"ending_occurrences,omitempty"`
	EndingDate         string `json:"ending_date,omitempty"`

	// LegacyRecurring carries the pre-recurrence file format through
	// load so it can be migrated. It is never written back.
	LegacyRecurring *bool `json:"is_recurring,omitempty"`
}

// normalize fills the defaults for fields the caller left unset.
func (e *Entry) normalize() {
	if e.Timezone == "" {
		e.Timezone = DefaultTimezone
	}
	if e.RecurrenceType == "" {
		e.RecurrenceType = recurrenceOneTime
	}
	if e.RecurrenceInterval <= 0 {
		e.RecurrenceInterval = 1
	}
	if e.EndingType == "" {
		e.EndingType = endingNever
	}
}

// Validate checks the fields an entry needs before it can be stored.
func (e Entry) Validate() error {
	if _, err := time.Parse(dateLayout, e.Date); err != nil {
		return errors.New("invalid date format (use YYYY-MM-DD)")
	}
	if !clockFormat.MatchString(e.StartTime) {
		return errors.New("invalid start time format (use HH:MM)")
	}
	if !clockFormat.MatchString(e.StopTime) {
		return errors.New("invalid stop time format (use HH:MM)")
	}
	switch e.RecurrenceType {
	case recurrenceOneTime, recurrenceWeekly, recurrenceMonthly, recurrenceYearly:
	default:
		return fmt.Errorf("invalid recurrence type (use one of: %s)", strings.Join(RecurrenceTypes, ", "))
	}
	switch e.EndingType {
	case endingNever, endingAfterOccurrences, endingOnDate:
	default:
		return fmt.Errorf("invalid ending type (use one of: %s)", strings.Join(EndingTypes, ", "))
	}
	if e.EndingType == endingOnDate && e.EndingDate != "" {
		if _, err := time.Parse(dateLayout, e.EndingDate); err != nil {
			return errors.New("invalid ending date format (use YYYY-MM-DD)")
		}
	}
	if _, err := e.location(); err != nil {
		return fmt.Errorf("unknown timezone %q", e.Timezone)
	}
	return nil
}

func (e Entry) location() (*time.Location, error) {
	tz := e.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}

// effectiveRecurrence collapses entries whose repeat toggle is off to
// a single occurrence regardless of the stored recurrence type.
func (e Entry) effectiveRecurrence() string {
	if e.RecurrenceType == "" {
		return recurrenceOneTime
	}
	if !e.Repeats && e.RecurrenceType != recurrenceOneTime {
		return recurrenceOneTime
	}
	return e.RecurrenceType
}

// ended reports whether an on_date ending has passed as of day.
// TODO: enforce after_occurrences; needs a count of past runs.
func (e Entry) ended(day time.Time) bool {
	if e.EndingType != endingOnDate || e.EndingDate == "" {
		return false
	}
	end, err := time.ParseInLocation(dateLayout, e.EndingDate, day.Location())
	if err != nil {
		return false
	}
	return day.After(end)
}

// OccursOn reports whether the entry fires on the calendar day of t,
// which must already be in the entry's own timezone. One-time entries
// fire only on their date, weekly ones on the same weekday, monthly
// ones on the same day of month, yearly ones on the same month and
// day. Nothing fires before the entry's own date.
func (e Entry) OccursOn(t time.Time) bool {
	anchor, err := time.ParseInLocation(dateLayout, e.Date, t.Location())
	if err != nil {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if day.Before(anchor) {
		return false
	}
	if e.ended(day) {
		return false
	}
	switch e.effectiveRecurrence() {
	case recurrenceOneTime:
		return day.Equal(anchor)
	case recurrenceWeekly:
		return day.Weekday() == anchor.Weekday()
	case recurrenceMonthly:
		return day.Day() == anchor.Day()
	case recurrenceYearly:
		return day.Month() == anchor.Month() && day.Day() == anchor.Day()
	}
	return false
}

// DueAt reports the action, if any, the entry requests at now. The
// match is minute-resolution against the entry's start and stop times
// in the entry's own timezone. Paused entries never fire.
func (e Entry) DueAt(now time.Time) (Action, bool) {
	if e.PauseEvent {
		return "", false
	}
	loc, err := e.location()
	if err != nil {
		return "", false
	}
	local := now.In(loc)
	if !e.OccursOn(local) {
		return "", false
	}
	switch local.Format("15:04") {
	case normalizeClock(e.StartTime):
		return ActionStart, true
	case normalizeClock(e.StopTime):
		return ActionStop, true
	}
	return "", false
}

// normalizeClock pads single-digit hours so "9:05" compares equal to
// the formatted "09:05".
func normalizeClock(s string) string {
	if len(s) == 4 {
		return "0" + s
	}
	return s
}
