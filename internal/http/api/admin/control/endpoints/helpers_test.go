package endpoints

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

var errNoRows = errors.New("no rows")

// stubStore backs endpoint tests with in-memory maps. Only the methods the
// tested endpoints call are implemented; the embedded interface panics on
// anything else.
type stubStore struct {
	db.Store

	automations map[int]model.Automation
	rules       map[int]model.AutomationScheduleRule
	deviations  map[int]model.Deviation
	presets     map[int]model.PricePreset
	queue       map[int]model.SaleQueueItem
	nextID      int
}

func newStubStore() *stubStore {
	return &stubStore{
		automations: map[int]model.Automation{},
		rules:       map[int]model.AutomationScheduleRule{},
		deviations:  map[int]model.Deviation{},
		presets:     map[int]model.PricePreset{},
		queue:       map[int]model.SaleQueueItem{},
		nextID:      100,
	}
}

func (s *stubStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *stubStore) GetAutomationByID(id int) (model.Automation, error) {
	a, ok := s.automations[id]
	if !ok {
		return model.Automation{}, errNoRows
	}
	return a, nil
}

func (s *stubStore) UpdateAutomation(id int, name *string, galleryID *int, enabled *bool) (model.Automation, error) {
	a := s.automations[id]
	if name != nil {
		a.Name = *name
	}
	if galleryID != nil {
		a.GalleryID = *galleryID
	}
	if enabled != nil {
		a.Enabled = *enabled
	}
	s.automations[id] = a
	return a, nil
}

func (s *stubStore) CreateScheduleRule(r model.AutomationScheduleRule) (model.AutomationScheduleRule, error) {
	r.ID = s.id()
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	s.rules[r.ID] = r
	return r, nil
}

func (s *stubStore) GetScheduleRuleByID(id int) (model.AutomationScheduleRule, error) {
	r, ok := s.rules[id]
	if !ok {
		return model.AutomationScheduleRule{}, errNoRows
	}
	return r, nil
}

// ListScheduleRules keeps the store contract: lower priority number first,
// ties broken by earliest creation.
func (s *stubStore) ListScheduleRules(automationID int) ([]model.AutomationScheduleRule, error) {
	var out []model.AutomationScheduleRule
	for _, r := range s.rules {
		if r.AutomationID == automationID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *stubStore) UpdateScheduleRule(id int, upd db.ScheduleRuleUpdate) (model.AutomationScheduleRule, error) {
	r := s.rules[id]
	if upd.TimeOfDay != nil {
		r.TimeOfDay = upd.TimeOfDay
	}
	if upd.DaysOfWeek != nil {
		r.DaysOfWeek = upd.DaysOfWeek
	}
	if upd.IntervalMinutes != nil {
		r.IntervalMinutes = upd.IntervalMinutes
	}
	if upd.DeviationsPerInterval != nil {
		r.DeviationsPerInterval = upd.DeviationsPerInterval
	}
	if upd.DailyQuota != nil {
		r.DailyQuota = upd.DailyQuota
	}
	if upd.Priority != nil {
		r.Priority = *upd.Priority
	}
	if upd.Enabled != nil {
		r.Enabled = *upd.Enabled
	}
	s.rules[id] = r
	return r, nil
}

// DeleteScheduleRuleGuarded mirrors the SQL guard: the last enabled rule of
// an enabled automation cannot be removed.
func (s *stubStore) DeleteScheduleRuleGuarded(id int) error {
	rule, ok := s.rules[id]
	if !ok {
		return errNoRows
	}
	automation := s.automations[rule.AutomationID]
	if rule.Enabled && automation.Enabled {
		enabled := 0
		for _, r := range s.rules {
			if r.AutomationID == rule.AutomationID && r.Enabled {
				enabled++
			}
		}
		if enabled <= 1 {
			return db.ErrLastEnabledRule
		}
	}
	delete(s.rules, id)
	return nil
}

func (s *stubStore) GetDeviationByID(id int) (model.Deviation, error) {
	d, ok := s.deviations[id]
	if !ok {
		return model.Deviation{}, errNoRows
	}
	return d, nil
}

func (s *stubStore) GetPricePresetByID(id int) (model.PricePreset, error) {
	p, ok := s.presets[id]
	if !ok {
		return model.PricePreset{}, errNoRows
	}
	return p, nil
}

// DeletePricePresetGuarded mirrors the SQL guard: a missing row surfaces as
// sql.ErrNoRows, an active queue reference as ErrPresetInUse.
func (s *stubStore) DeletePricePresetGuarded(id int) error {
	if _, ok := s.presets[id]; !ok {
		return sql.ErrNoRows
	}
	for _, item := range s.queue {
		if item.PricePresetID == id && sales.Active(item.Status) {
			return db.ErrPresetInUse
		}
	}
	delete(s.presets, id)
	return nil
}

func (s *stubStore) HasActiveSaleItem(deviationID int) (bool, error) {
	for _, item := range s.queue {
		if item.DeviationID == deviationID && sales.Active(item.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) EnqueueSaleItem(deviationID, pricePresetID int) (model.SaleQueueItem, error) {
	item := model.SaleQueueItem{
		ID:            s.id(),
		DeviationID:   deviationID,
		PricePresetID: pricePresetID,
		Status:        sales.StatusPending,
	}
	s.queue[item.ID] = item
	return item, nil
}

func (s *stubStore) GetSaleQueueItemWithOwner(id int) (model.SaleQueueItem, int, error) {
	item, ok := s.queue[id]
	if !ok {
		return model.SaleQueueItem{}, 0, errNoRows
	}
	deviation, ok := s.deviations[item.DeviationID]
	if !ok {
		return model.SaleQueueItem{}, 0, errNoRows
	}
	return item, deviation.UserID, nil
}

func (s *stubStore) ListSaleQueue(userID int, status *string, limit, offset int) ([]model.SaleQueueEntry, int, error) {
	var out []model.SaleQueueEntry
	for _, item := range s.queue {
		deviation := s.deviations[item.DeviationID]
		if deviation.UserID != userID {
			continue
		}
		if status != nil && item.Status != *status {
			continue
		}
		out = append(out, model.SaleQueueEntry{SaleQueueItem: item})
	}
	return out, len(out), nil
}

func (s *stubStore) SkipSaleItem(id int) (bool, error) {
	item, ok := s.queue[id]
	if !ok || item.Status != sales.StatusPending {
		return false, nil
	}
	item.Status = sales.StatusSkipped
	s.queue[id] = item
	return true, nil
}

func (s *stubStore) DeleteSaleQueueItem(id int) error {
	delete(s.queue, id)
	return nil
}

var testUser = &model.User{ID: 7, Email: "artist@example.com"}

// newTestRouter mounts modules behind a middleware that injects testUser,
// standing in for the JWT layer.
func newTestRouter(modules ...api.Module) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Middleware: []gin.HandlerFunc{func(c *gin.Context) {
			c.Set("currentUser", testUser)
			c.Next()
		}},
	}, modules...)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error
}
