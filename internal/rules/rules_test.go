package rules

import (
	"strings"
	"testing"
)

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

func TestValidateCreate_FixedTime(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantErr string
	}{
		{"valid midnight", Payload{TimeOfDay: strp("00:00")}, ""},
		{"valid last minute", Payload{TimeOfDay: strp("23:59")}, ""},
		{"valid with days", Payload{TimeOfDay: strp("09:30"), DaysOfWeek: []string{"monday", "friday"}}, ""},
		{"missing time", Payload{}, "requires time_of_day"},
		{"hour out of range", Payload{TimeOfDay: strp("24:00")}, "must be HH:MM"},
		{"minute out of range", Payload{TimeOfDay: strp("12:60")}, "must be HH:MM"},
		{"no leading zero", Payload{TimeOfDay: strp("9:30")}, "must be HH:MM"},
		{"not a time", Payload{TimeOfDay: strp("noon")}, "must be HH:MM"},
		{"capitalized weekday", Payload{TimeOfDay: strp("09:30"), DaysOfWeek: []string{"Monday"}}, "invalid weekday"},
		{"bogus weekday", Payload{TimeOfDay: strp("09:30"), DaysOfWeek: []string{"funday"}}, "invalid weekday"},
		{"empty weekday list", Payload{TimeOfDay: strp("09:30"), DaysOfWeek: []string{}}, "must not be empty"},
		{"interval field rejected", Payload{TimeOfDay: strp("09:30"), IntervalMinutes: intp(30)}, "Cannot set interval or quota fields on fixed_time rule"},
		{"quota field rejected", Payload{TimeOfDay: strp("09:30"), DailyQuota: intp(5)}, "Cannot set interval or quota fields on fixed_time rule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreate(TypeFixedTime, tc.payload)
			checkErr(t, err, tc.wantErr)
		})
	}
}

func TestValidateCreate_FixedInterval(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantErr string
	}{
		{"lower bounds", Payload{IntervalMinutes: intp(5), DeviationsPerInterval: intp(1)}, ""},
		{"upper bounds", Payload{IntervalMinutes: intp(10080), DeviationsPerInterval: intp(100)}, ""},
		{"interval below", Payload{IntervalMinutes: intp(4), DeviationsPerInterval: intp(1)}, "interval_minutes must be between 5 and 10080"},
		{"interval above", Payload{IntervalMinutes: intp(10081), DeviationsPerInterval: intp(1)}, "interval_minutes must be between 5 and 10080"},
		{"per-interval below", Payload{IntervalMinutes: intp(60), DeviationsPerInterval: intp(0)}, "deviations_per_interval must be between 1 and 100"},
		{"per-interval above", Payload{IntervalMinutes: intp(60), DeviationsPerInterval: intp(101)}, "deviations_per_interval must be between 1 and 100"},
		{"missing interval", Payload{DeviationsPerInterval: intp(1)}, "requires interval_minutes and deviations_per_interval"},
		{"missing per-interval", Payload{IntervalMinutes: intp(60)}, "requires interval_minutes and deviations_per_interval"},
		{"time field rejected", Payload{IntervalMinutes: intp(60), DeviationsPerInterval: intp(1), TimeOfDay: strp("09:00")}, "Cannot set time or quota fields on fixed_interval rule"},
		{"days field rejected", Payload{IntervalMinutes: intp(60), DeviationsPerInterval: intp(1), DaysOfWeek: []string{"monday"}}, "Cannot set time or quota fields on fixed_interval rule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreate(TypeFixedInterval, tc.payload)
			checkErr(t, err, tc.wantErr)
		})
	}
}

func TestValidateCreate_DailyQuota(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantErr string
	}{
		{"lower bound", Payload{DailyQuota: intp(1)}, ""},
		{"upper bound", Payload{DailyQuota: intp(100)}, ""},
		{"with days", Payload{DailyQuota: intp(3), DaysOfWeek: []string{"saturday", "sunday"}}, ""},
		{"zero", Payload{DailyQuota: intp(0)}, "daily_quota must be between 1 and 100"},
		{"above", Payload{DailyQuota: intp(101)}, "daily_quota must be between 1 and 100"},
		{"missing", Payload{}, "requires daily_quota"},
		{"time field rejected", Payload{DailyQuota: intp(3), TimeOfDay: strp("09:00")}, "Cannot set time or interval fields on daily_quota rule"},
		{"interval field rejected", Payload{DailyQuota: intp(3), IntervalMinutes: intp(60)}, "Cannot set time or interval fields on daily_quota rule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreate(TypeDailyQuota, tc.payload)
			checkErr(t, err, tc.wantErr)
		})
	}
}

func TestValidateCreate_UnknownType(t *testing.T) {
	if err := ValidateCreate("hourly", Payload{}); err == nil {
		t.Fatal("expected error for unknown rule type")
	}
}

func TestValidateUpdate(t *testing.T) {
	// Partial updates leave absent fields alone.
	if err := ValidateUpdate(TypeFixedTime, Payload{}); err != nil {
		t.Fatalf("empty update should pass: %v", err)
	}
	if err := ValidateUpdate(TypeFixedTime, Payload{TimeOfDay: strp("18:45")}); err != nil {
		t.Fatalf("own-type update should pass: %v", err)
	}

	// Cross-type updates fail with the exact contract message.
	err := ValidateUpdate(TypeFixedTime, Payload{IntervalMinutes: intp(30)})
	if err == nil || err.Error() != "Cannot set interval or quota fields on fixed_time rule" {
		t.Fatalf("unexpected error: %v", err)
	}

	// Present own-type fields are still range-checked.
	if err := ValidateUpdate(TypeFixedInterval, Payload{IntervalMinutes: intp(4)}); err == nil {
		t.Fatal("expected range error on partial update")
	}
}

func checkErr(t *testing.T, err error, want string) {
	t.Helper()
	if want == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error containing %q, got %q", want, err.Error())
	}
}
