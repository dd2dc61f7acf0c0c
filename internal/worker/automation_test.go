package worker

import (
	"testing"
	"time"

	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/rules"
)

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }
func timep(t time.Time) *time.Time {
	return &t
}

// 2025-06-02 is a Monday.
var monday10 = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func fixedTimeRule(at string, days []string, lastRun *time.Time) model.AutomationScheduleRule {
	return model.AutomationScheduleRule{
		Type:       rules.TypeFixedTime,
		TimeOfDay:  strp(at),
		DaysOfWeek: days,
		Enabled:    true,
		LastRunAt:  lastRun,
	}
}

func TestDue_FixedTime(t *testing.T) {
	cases := []struct {
		name string
		rule model.AutomationScheduleRule
		want bool
	}{
		{"time reached", fixedTimeRule("09:30", nil, nil), true},
		{"time not reached", fixedTimeRule("10:01", nil, nil), false},
		{"exact minute", fixedTimeRule("10:00", nil, nil), true},
		{"day allowed", fixedTimeRule("09:30", []string{"monday"}, nil), true},
		{"day not allowed", fixedTimeRule("09:30", []string{"tuesday"}, nil), false},
		{"already ran today", fixedTimeRule("09:30", nil, timep(monday10.Add(-30*time.Minute))), false},
		{"ran yesterday", fixedTimeRule("09:30", nil, timep(monday10.AddDate(0, 0, -1))), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch, due := Due(tc.rule, monday10, 0)
			if due != tc.want {
				t.Fatalf("due = %v, want %v", due, tc.want)
			}
			if due && batch != 1 {
				t.Fatalf("fixed_time batch = %d, want 1", batch)
			}
		})
	}
}

func TestDue_FixedInterval(t *testing.T) {
	rule := model.AutomationScheduleRule{
		Type:                  rules.TypeFixedInterval,
		IntervalMinutes:       intp(60),
		DeviationsPerInterval: intp(3),
		Enabled:               true,
	}

	batch, due := Due(rule, monday10, 0)
	if !due || batch != 3 {
		t.Fatalf("never-run rule: batch=%d due=%v, want 3 true", batch, due)
	}

	rule.LastRunAt = timep(monday10.Add(-30 * time.Minute))
	if _, due := Due(rule, monday10, 0); due {
		t.Fatal("rule due again before interval elapsed")
	}

	rule.LastRunAt = timep(monday10.Add(-61 * time.Minute))
	if batch, due := Due(rule, monday10, 0); !due || batch != 3 {
		t.Fatalf("elapsed interval: batch=%d due=%v, want 3 true", batch, due)
	}
}

func TestDue_DailyQuota(t *testing.T) {
	rule := model.AutomationScheduleRule{
		Type:       rules.TypeDailyQuota,
		DailyQuota: intp(4), // spacing of 6h
		Enabled:    true,
	}

	if _, due := Due(rule, monday10, 4); due {
		t.Fatal("rule due with quota already met")
	}
	if batch, due := Due(rule, monday10, 0); !due || batch != 1 {
		t.Fatalf("never-run rule: batch=%d due=%v, want 1 true", batch, due)
	}

	rule.LastRunAt = timep(monday10.Add(-2 * time.Hour))
	if _, due := Due(rule, monday10, 1); due {
		t.Fatal("rule due before quota spacing elapsed")
	}

	rule.LastRunAt = timep(monday10.Add(-7 * time.Hour))
	if _, due := Due(rule, monday10, 1); !due {
		t.Fatal("rule not due after quota spacing elapsed")
	}

	rule.DaysOfWeek = []string{"tuesday"}
	if _, due := Due(rule, monday10, 1); due {
		t.Fatal("rule due on a disallowed weekday")
	}
}

func TestDue_DisabledRule(t *testing.T) {
	rule := fixedTimeRule("09:30", nil, nil)
	rule.Enabled = false
	if _, due := Due(rule, monday10, 0); due {
		t.Fatal("disabled rule reported due")
	}
}

func TestFirstDueRule(t *testing.T) {
	notDue := fixedTimeRule("23:00", nil, nil)
	notDue.ID = 1
	due := fixedTimeRule("09:00", nil, nil)
	due.ID = 2
	alsoDue := fixedTimeRule("08:00", nil, nil)
	alsoDue.ID = 3

	rule, batch, ok := FirstDueRule([]model.AutomationScheduleRule{notDue, due, alsoDue}, monday10, 0)
	if !ok {
		t.Fatal("expected a due rule")
	}
	if rule.ID != 2 {
		t.Fatalf("picked rule %d, want first due rule 2", rule.ID)
	}
	if batch != 1 {
		t.Fatalf("batch = %d, want 1", batch)
	}

	if _, _, ok := FirstDueRule([]model.AutomationScheduleRule{notDue}, monday10, 0); ok {
		t.Fatal("expected no due rule")
	}
}
