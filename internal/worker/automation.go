package worker

import (
	"strings"
	"time"

	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/rules"
)

// Due evaluates one schedule rule at a point in time and returns how many
// deviations it should post right now. postsToday is the number of posts
// the automation already made since local midnight; only daily_quota rules
// consume it.
func Due(rule model.AutomationScheduleRule, now time.Time, postsToday int) (int, bool) {
	if !rule.Enabled {
		return 0, false
	}

	switch rule.Type {
	case rules.TypeFixedTime:
		return dueFixedTime(rule, now)
	case rules.TypeFixedInterval:
		return dueFixedInterval(rule, now)
	case rules.TypeDailyQuota:
		return dueDailyQuota(rule, now, postsToday)
	}
	return 0, false
}

// dueFixedTime fires once per allowed day, as soon as the wall-clock time
// of day has passed.
func dueFixedTime(rule model.AutomationScheduleRule, now time.Time) (int, bool) {
	if rule.TimeOfDay == nil {
		return 0, false
	}
	if !dayAllowed(rule.DaysOfWeek, now) {
		return 0, false
	}

	at, err := time.Parse("15:04", *rule.TimeOfDay)
	if err != nil {
		return 0, false
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if now.Before(target) {
		return 0, false
	}
	// at most one firing per day
	if rule.LastRunAt != nil && sameDay(*rule.LastRunAt, now) {
		return 0, false
	}
	return 1, true
}

func dueFixedInterval(rule model.AutomationScheduleRule, now time.Time) (int, bool) {
	if rule.IntervalMinutes == nil || rule.DeviationsPerInterval == nil {
		return 0, false
	}
	if rule.LastRunAt != nil {
		interval := time.Duration(*rule.IntervalMinutes) * time.Minute
		if now.Sub(*rule.LastRunAt) < interval {
			return 0, false
		}
	}
	return *rule.DeviationsPerInterval, true
}

// dueDailyQuota spreads quota posts evenly across the day: one post every
// 24h/quota, stopping once the quota is reached.
func dueDailyQuota(rule model.AutomationScheduleRule, now time.Time, postsToday int) (int, bool) {
	if rule.DailyQuota == nil || *rule.DailyQuota < 1 {
		return 0, false
	}
	if !dayAllowed(rule.DaysOfWeek, now) {
		return 0, false
	}
	if postsToday >= *rule.DailyQuota {
		return 0, false
	}
	if rule.LastRunAt != nil {
		spacing := 24 * time.Hour / time.Duration(*rule.DailyQuota)
		if now.Sub(*rule.LastRunAt) < spacing {
			return 0, false
		}
	}
	return 1, true
}

// dayAllowed treats an empty day list as every day.
func dayAllowed(days []string, now time.Time) bool {
	if len(days) == 0 {
		return true
	}
	today := strings.ToLower(now.Weekday().String())
	for _, d := range days {
		if d == today {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FirstDueRule walks rules in the order the store returns them (priority,
// then creation time) and returns the first enabled rule that is due.
func FirstDueRule(list []model.AutomationScheduleRule, now time.Time, postsToday int) (model.AutomationScheduleRule, int, bool) {
	for _, rule := range list {
		if batch, due := Due(rule, now, postsToday); due {
			return rule, batch, true
		}
	}
	return model.AutomationScheduleRule{}, 0, false
}
