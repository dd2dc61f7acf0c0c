package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/rules"
)

func seedAutomation(store *stubStore, userID int, enabled bool) model.Automation {
	a := model.Automation{ID: store.id(), UserID: userID, GalleryID: 1, Name: "queue feeder", Enabled: enabled}
	store.automations[a.ID] = a
	return a
}

func seedRule(store *stubStore, automationID int, ruleType string, enabled bool) model.AutomationScheduleRule {
	at := "09:00"
	quota := 3
	interval := 60
	per := 1
	r := model.AutomationScheduleRule{ID: store.id(), AutomationID: automationID, Type: ruleType, Enabled: enabled}
	switch ruleType {
	case rules.TypeFixedTime:
		r.TimeOfDay = &at
	case rules.TypeFixedInterval:
		r.IntervalMinutes = &interval
		r.DeviationsPerInterval = &per
	case rules.TypeDailyQuota:
		r.DailyQuota = &quota
	}
	store.rules[r.ID] = r
	return r
}

func TestCreateRule(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	r := newTestRouter(ScheduleRuleModule(store))

	w := doJSON(t, r, http.MethodPost, "/api/admin/automation-schedule-rules", map[string]any{
		"automation_id": automation.ID,
		"type":          "fixed_time",
		"time_of_day":   "18:30",
		"days_of_week":  []string{"saturday", "sunday"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}

	var body struct {
		Rule struct {
			ID        int    `json:"id"`
			Type      string `json:"type"`
			TimeOfDay string `json:"time_of_day"`
			Enabled   bool   `json:"enabled"`
		} `json:"rule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Rule.TimeOfDay != "18:30" {
		t.Fatalf("time_of_day = %q, want 18:30", body.Rule.TimeOfDay)
	}
	if !body.Rule.Enabled {
		t.Fatal("enabled should default to true")
	}
}

func TestListRules_PriorityThenCreationOrder(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	r := newTestRouter(ScheduleRuleModule(store))

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	seed := func(priority int, createdAt time.Time) int {
		rule := seedRule(store, automation.ID, rules.TypeDailyQuota, true)
		rule.Priority = priority
		rule.CreatedAt = createdAt
		store.rules[rule.ID] = rule
		return rule.ID
	}

	last := seed(2, base)
	first := seed(0, base.Add(time.Hour))
	tieNewer := seed(1, base.Add(2*time.Hour))
	tieOlder := seed(1, base)

	w := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/admin/automation-schedule-rules?automation_id=%d", automation.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	var body struct {
		Rules []struct {
			ID int `json:"id"`
		} `json:"rules"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	want := []int{first, tieOlder, tieNewer, last}
	if len(body.Rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(body.Rules), len(want))
	}
	for i, rule := range body.Rules {
		if rule.ID != want[i] {
			t.Fatalf("rule %d = id %d, want %d (priority first, creation breaks ties)", i, rule.ID, want[i])
		}
	}
}

func TestCreateRule_CrossTypeFieldRejected(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	r := newTestRouter(ScheduleRuleModule(store))

	w := doJSON(t, r, http.MethodPost, "/api/admin/automation-schedule-rules", map[string]any{
		"automation_id":    automation.ID,
		"type":             "fixed_time",
		"time_of_day":      "18:30",
		"interval_minutes": 60,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := errorMessage(t, w); msg != "Cannot set interval or quota fields on fixed_time rule" {
		t.Fatalf("unexpected error message %q", msg)
	}
	if len(store.rules) != 0 {
		t.Fatal("rule was persisted despite validation failure")
	}
}

func TestCreateRule_ForeignAutomationHidden(t *testing.T) {
	store := newStubStore()
	foreign := seedAutomation(store, testUser.ID+1, true)
	r := newTestRouter(ScheduleRuleModule(store))

	w := doJSON(t, r, http.MethodPost, "/api/admin/automation-schedule-rules", map[string]any{
		"automation_id": foreign.ID,
		"type":          "daily_quota",
		"daily_quota":   3,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for another user's automation", w.Code)
	}
}

func TestUpdateRule_TypeStaysImmutable(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	rule := seedRule(store, automation.ID, rules.TypeFixedInterval, true)
	r := newTestRouter(ScheduleRuleModule(store))

	// own-type partial update passes
	w := doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/api/admin/automation-schedule-rules/%d", rule.ID),
		map[string]any{"interval_minutes": 120})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if got := *store.rules[rule.ID].IntervalMinutes; got != 120 {
		t.Fatalf("interval_minutes = %d, want 120", got)
	}

	// foreign-type field is rejected against the stored type
	w = doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/api/admin/automation-schedule-rules/%d", rule.ID),
		map[string]any{"time_of_day": "09:00"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := errorMessage(t, w); msg != "Cannot set time or quota fields on fixed_interval rule" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestDeleteRule_LastEnabledGuard(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	rule := seedRule(store, automation.ID, rules.TypeDailyQuota, true)
	r := newTestRouter(ScheduleRuleModule(store), AutomationModule(store))

	path := fmt.Sprintf("/api/admin/automation-schedule-rules/%d", rule.ID)

	// sole enabled rule of an enabled automation cannot go
	w := doJSON(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if msg := errorMessage(t, w); msg != "Cannot delete the last enabled rule while automation is enabled" {
		t.Fatalf("unexpected error message %q", msg)
	}

	// disabling the automation lifts the guard
	w = doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/api/admin/automations/%d", automation.ID),
		map[string]any{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("disable automation: status = %d (%s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 after disabling automation", w.Code)
	}
	if _, ok := store.rules[rule.ID]; ok {
		t.Fatal("rule still present after delete")
	}
}

func TestDeleteRule_SecondEnabledRuleAllows(t *testing.T) {
	store := newStubStore()
	automation := seedAutomation(store, testUser.ID, true)
	first := seedRule(store, automation.ID, rules.TypeDailyQuota, true)
	seedRule(store, automation.ID, rules.TypeFixedTime, true)
	r := newTestRouter(ScheduleRuleModule(store))

	w := doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/api/admin/automation-schedule-rules/%d", first.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 with another enabled rule present", w.Code)
	}
}
