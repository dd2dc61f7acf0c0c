package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

// fakeStore implements only the methods the worker touches; anything else
// panics through the embedded nil interface.
type fakeStore struct {
	db.Store

	claimed     []model.SaleQueueItem
	deviations  map[int]model.Deviation
	presets     map[int]model.PricePreset
	automations []model.Automation
	rules       map[int][]model.AutomationScheduleRule
	postsToday  int

	completed []int
	failed    []failCall
	published []int
	marked    []int
	recorded  []int
}

type failCall struct {
	id    int
	retry bool
}

func (f *fakeStore) ClaimPendingSaleItems(limit int) ([]model.SaleQueueItem, error) {
	if len(f.claimed) > limit {
		return f.claimed[:limit], nil
	}
	return f.claimed, nil
}

func (f *fakeStore) GetDeviationByID(id int) (model.Deviation, error) {
	d, ok := f.deviations[id]
	if !ok {
		return model.Deviation{}, errors.New("no rows")
	}
	return d, nil
}

func (f *fakeStore) GetPricePresetByID(id int) (model.PricePreset, error) {
	p, ok := f.presets[id]
	if !ok {
		return model.PricePreset{}, errors.New("no rows")
	}
	return p, nil
}

func (f *fakeStore) CompleteSaleItem(id int, at time.Time) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeStore) FailSaleItem(id int, errMsg string, retry bool) error {
	f.failed = append(f.failed, failCall{id: id, retry: retry})
	return nil
}

func (f *fakeStore) ListDueScheduledDeviations(now time.Time, limit int) ([]model.Deviation, error) {
	var out []model.Deviation
	for _, d := range f.deviations {
		if d.Status == model.DeviationScheduled && d.ScheduledAt != nil && !d.ScheduledAt.After(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) PublishDeviation(id int, at time.Time) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) MarkRuleRun(id int, at time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeStore) RecordAutomationPost(automationID, ruleID, deviationID int, at time.Time) error {
	f.recorded = append(f.recorded, deviationID)
	return nil
}

func (f *fakeStore) ListEnabledAutomations() ([]model.Automation, error) {
	return f.automations, nil
}

func (f *fakeStore) ListScheduleRules(automationID int) ([]model.AutomationScheduleRule, error) {
	return f.rules[automationID], nil
}

func (f *fakeStore) CountAutomationPostsSince(automationID int, since time.Time) (int, error) {
	return f.postsToday, nil
}

func (f *fakeStore) NextDraftDeviations(galleryID, limit int) ([]model.Deviation, error) {
	var out []model.Deviation
	for _, d := range f.deviations {
		if d.Status == model.DeviationDraft && d.GalleryID != nil && *d.GalleryID == galleryID {
			out = append(out, d)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakePublisher struct {
	saleErr    error
	publishErr error
	sales      []int
	publishes  []int
}

func (f *fakePublisher) PublishDeviation(ctx context.Context, userID int, url, title string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.publishes = append(f.publishes, userID)
	return nil
}

func (f *fakePublisher) CreateSale(ctx context.Context, userID, deviationID, priceCents int, currency string) error {
	if f.saleErr != nil {
		return f.saleErr
	}
	f.sales = append(f.sales, priceCents)
	return nil
}

func fixedPreset(id, price int) model.PricePreset {
	return model.PricePreset{
		ID:          id,
		Currency:    "USD",
		PricingMode: sales.PricingFixed,
		Price:       &price,
	}
}

func TestDrainSaleQueue_Completes(t *testing.T) {
	store := &fakeStore{
		claimed: []model.SaleQueueItem{
			{ID: 1, DeviationID: 10, PricePresetID: 5, Status: sales.StatusProcessing, Attempts: 1},
		},
		deviations: map[int]model.Deviation{
			10: {ID: 10, UserID: 7, Status: model.DeviationPublished},
		},
		presets: map[int]model.PricePreset{5: fixedPreset(5, 400)},
	}
	pub := &fakePublisher{}

	New(store, pub, time.Second).drainSaleQueue(context.Background(), time.Now())

	if len(store.completed) != 1 || store.completed[0] != 1 {
		t.Fatalf("completed = %v, want [1]", store.completed)
	}
	if len(store.failed) != 0 {
		t.Fatalf("unexpected failures: %v", store.failed)
	}
	if len(pub.sales) != 1 || pub.sales[0] != 400 {
		t.Fatalf("sale prices = %v, want [400]", pub.sales)
	}
}

func TestDrainSaleQueue_RetriesUntilAttemptCap(t *testing.T) {
	item := model.SaleQueueItem{ID: 2, DeviationID: 10, PricePresetID: 5, Status: sales.StatusProcessing}
	store := &fakeStore{
		deviations: map[int]model.Deviation{10: {ID: 10, UserID: 7}},
		presets:    map[int]model.PricePreset{5: fixedPreset(5, 400)},
	}
	pub := &fakePublisher{saleErr: errors.New("deviantart down")}
	svc := New(store, pub, time.Second)

	// first two failed attempts go back to pending
	for _, attempts := range []int{1, 2} {
		item.Attempts = attempts
		store.claimed = []model.SaleQueueItem{item}
		svc.drainSaleQueue(context.Background(), time.Now())

		last := store.failed[len(store.failed)-1]
		if !last.retry {
			t.Fatalf("attempt %d marked terminal, want retry", attempts)
		}
	}

	// the third failure is terminal
	item.Attempts = sales.MaxAttempts
	store.claimed = []model.SaleQueueItem{item}
	svc.drainSaleQueue(context.Background(), time.Now())

	last := store.failed[len(store.failed)-1]
	if last.retry {
		t.Fatalf("attempt %d marked retry, want terminal failure", sales.MaxAttempts)
	}
	if len(store.completed) != 0 {
		t.Fatalf("unexpected completions: %v", store.completed)
	}
}

func TestDrainSaleQueue_RangePriceWithinBounds(t *testing.T) {
	minPrice, maxPrice := 100, 105
	store := &fakeStore{
		claimed: []model.SaleQueueItem{
			{ID: 3, DeviationID: 10, PricePresetID: 6, Status: sales.StatusProcessing, Attempts: 1},
		},
		deviations: map[int]model.Deviation{10: {ID: 10, UserID: 7}},
		presets: map[int]model.PricePreset{
			6: {
				ID:          6,
				Currency:    "USD",
				PricingMode: sales.PricingRange,
				MinPrice:    &minPrice,
				MaxPrice:    &maxPrice,
			},
		},
	}
	pub := &fakePublisher{}

	New(store, pub, time.Second).drainSaleQueue(context.Background(), time.Now())

	if len(pub.sales) != 1 {
		t.Fatalf("sales = %v, want one", pub.sales)
	}
	if price := pub.sales[0]; price < minPrice || price > maxPrice {
		t.Fatalf("resolved price %d outside [%d, %d]", price, minPrice, maxPrice)
	}
}

func TestDrainScheduled_PublishesDueDeviations(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	store := &fakeStore{
		deviations: map[int]model.Deviation{
			1: {ID: 1, UserID: 7, Status: model.DeviationScheduled, ScheduledAt: &past},
			2: {ID: 2, UserID: 7, Status: model.DeviationScheduled, ScheduledAt: &future},
			3: {ID: 3, UserID: 7, Status: model.DeviationDraft},
		},
	}
	pub := &fakePublisher{}

	New(store, pub, time.Second).drainScheduled(context.Background(), now)

	if len(store.published) != 1 || store.published[0] != 1 {
		t.Fatalf("published = %v, want [1]", store.published)
	}
}

func TestDrainScheduled_PublisherFailureLeavesRow(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	store := &fakeStore{
		deviations: map[int]model.Deviation{
			1: {ID: 1, UserID: 7, Status: model.DeviationScheduled, ScheduledAt: &past},
		},
	}
	pub := &fakePublisher{publishErr: errors.New("deviantart down")}

	New(store, pub, time.Second).drainScheduled(context.Background(), now)

	if len(store.published) != 0 {
		t.Fatalf("published = %v, want none on publisher failure", store.published)
	}
}

func TestRunAutomations_PostsFirstDueRule(t *testing.T) {
	galleryID := 4
	store := &fakeStore{
		automations: []model.Automation{
			{ID: 1, UserID: 7, GalleryID: galleryID, Enabled: true},
		},
		rules: map[int][]model.AutomationScheduleRule{
			1: {
				{ID: 11, AutomationID: 1, Type: "fixed_time", TimeOfDay: strp("23:00"), Enabled: true},
				{ID: 12, AutomationID: 1, Type: "fixed_interval", IntervalMinutes: intp(60), DeviationsPerInterval: intp(2), Enabled: true},
			},
		},
		deviations: map[int]model.Deviation{
			10: {ID: 10, UserID: 7, GalleryID: &galleryID, Status: model.DeviationDraft},
		},
	}
	pub := &fakePublisher{}

	New(store, pub, time.Second).runAutomations(context.Background(), monday10)

	if len(store.published) != 1 || store.published[0] != 10 {
		t.Fatalf("published = %v, want [10]", store.published)
	}
	if len(store.recorded) != 1 || store.recorded[0] != 10 {
		t.Fatalf("recorded = %v, want [10]", store.recorded)
	}
	if len(store.marked) != 1 || store.marked[0] != 12 {
		t.Fatalf("marked rules = %v, want the due interval rule [12]", store.marked)
	}
}

func TestRunAutomations_NoDraftsSkipsRuleRun(t *testing.T) {
	store := &fakeStore{
		automations: []model.Automation{
			{ID: 1, UserID: 7, GalleryID: 4, Enabled: true},
		},
		rules: map[int][]model.AutomationScheduleRule{
			1: {{ID: 11, AutomationID: 1, Type: "fixed_interval", IntervalMinutes: intp(60), DeviationsPerInterval: intp(2), Enabled: true}},
		},
		deviations: map[int]model.Deviation{},
	}
	pub := &fakePublisher{}

	New(store, pub, time.Second).runAutomations(context.Background(), monday10)

	if len(store.marked) != 0 {
		t.Fatalf("marked = %v, want none when there is nothing to post", store.marked)
	}
}
