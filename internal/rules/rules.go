// Package rules validates automation schedule rule payloads. A rule's type
// discriminates which fields may be set; validation is centralized here so
// the create and update endpoints share one exhaustive dispatch instead of
// per-endpoint type branches.
package rules

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	TypeFixedTime     = "fixed_time"
	TypeFixedInterval = "fixed_interval"
	TypeDailyQuota    = "daily_quota"
)

const (
	MinIntervalMinutes = 5
	MaxIntervalMinutes = 10080 // one week
	MinPerInterval     = 1
	MaxPerInterval     = 100
	MinDailyQuota      = 1
	MaxDailyQuota      = 100
)

// 24-hour HH:MM, 00:00 through 23:59.
var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var weekdayNames = map[string]struct{}{
	"monday":    {},
	"tuesday":   {},
	"wednesday": {},
	"thursday":  {},
	"friday":    {},
	"saturday":  {},
	"sunday":    {},
}

// Payload carries every settable rule field from a create or update request.
// Nil means the field was absent from the request body.
type Payload struct {
	TimeOfDay             *string
	DaysOfWeek            []string
	IntervalMinutes       *int
	DeviationsPerInterval *int
	DailyQuota            *int
}

// ValidType reports whether t is one of the three rule types.
func ValidType(t string) bool {
	switch t {
	case TypeFixedTime, TypeFixedInterval, TypeDailyQuota:
		return true
	}
	return false
}

// ValidateCreate checks a full creation payload against ruleType: the
// type's own fields must be present and in range, foreign-type fields must
// be absent.
func ValidateCreate(ruleType string, p Payload) error {
	if !ValidType(ruleType) {
		return fmt.Errorf("unknown rule type %q", ruleType)
	}
	if err := rejectForeignFields(ruleType, p); err != nil {
		return err
	}

	switch ruleType {
	case TypeFixedTime:
		if p.TimeOfDay == nil {
			return errors.New("fixed_time rule requires time_of_day")
		}
	case TypeFixedInterval:
		if p.IntervalMinutes == nil || p.DeviationsPerInterval == nil {
			return errors.New("fixed_interval rule requires interval_minutes and deviations_per_interval")
		}
	case TypeDailyQuota:
		if p.DailyQuota == nil {
			return errors.New("daily_quota rule requires daily_quota")
		}
	}

	return validateOwnFields(p)
}

// ValidateUpdate checks a partial update payload against the rule's
// immutable type: foreign-type fields are rejected, own-type fields are
// validated only when present.
func ValidateUpdate(ruleType string, p Payload) error {
	if err := rejectForeignFields(ruleType, p); err != nil {
		return err
	}
	return validateOwnFields(p)
}

// rejectForeignFields enforces the type discriminant. The messages are part
// of the API contract; the frontend matches on them.
func rejectForeignFields(ruleType string, p Payload) error {
	switch ruleType {
	case TypeFixedTime:
		if p.IntervalMinutes != nil || p.DeviationsPerInterval != nil || p.DailyQuota != nil {
			return errors.New("Cannot set interval or quota fields on fixed_time rule")
		}
	case TypeFixedInterval:
		if p.TimeOfDay != nil || p.DaysOfWeek != nil || p.DailyQuota != nil {
			return errors.New("Cannot set time or quota fields on fixed_interval rule")
		}
	case TypeDailyQuota:
		if p.TimeOfDay != nil || p.IntervalMinutes != nil || p.DeviationsPerInterval != nil {
			return errors.New("Cannot set time or interval fields on daily_quota rule")
		}
	}
	return nil
}

// validateOwnFields range-checks whatever fields are present. Foreign
// fields have already been rejected, so anything left belongs to the type.
func validateOwnFields(p Payload) error {
	if p.TimeOfDay != nil && !timeOfDayPattern.MatchString(*p.TimeOfDay) {
		return errors.New("time_of_day must be HH:MM in 24-hour time")
	}
	if p.DaysOfWeek != nil {
		if len(p.DaysOfWeek) == 0 {
			return errors.New("days_of_week must not be empty when provided")
		}
		for _, d := range p.DaysOfWeek {
			if _, ok := weekdayNames[d]; !ok {
				return fmt.Errorf("days_of_week contains invalid weekday %q", d)
			}
		}
	}
	if p.IntervalMinutes != nil && (*p.IntervalMinutes < MinIntervalMinutes || *p.IntervalMinutes > MaxIntervalMinutes) {
		return fmt.Errorf("interval_minutes must be between %d and %d", MinIntervalMinutes, MaxIntervalMinutes)
	}
	if p.DeviationsPerInterval != nil && (*p.DeviationsPerInterval < MinPerInterval || *p.DeviationsPerInterval > MaxPerInterval) {
		return fmt.Errorf("deviations_per_interval must be between %d and %d", MinPerInterval, MaxPerInterval)
	}
	if p.DailyQuota != nil && (*p.DailyQuota < MinDailyQuota || *p.DailyQuota > MaxDailyQuota) {
		return fmt.Errorf("daily_quota must be between %d and %d", MinDailyQuota, MaxDailyQuota)
	}
	return nil
}
