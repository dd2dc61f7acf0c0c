package endpoints

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

func TestDeletePreset_InUseGuard(t *testing.T) {
	store := newStubStore()
	preset := seedPreset(store, testUser.ID)
	deviation := seedDeviation(store, testUser.ID, model.DeviationPublished)
	store.queue[1] = model.SaleQueueItem{ID: 1, DeviationID: deviation.ID, PricePresetID: preset.ID, Status: sales.StatusPending}
	r := newTestRouter(PricePresetModule(store))

	path := fmt.Sprintf("/api/admin/price-presets/%d", preset.ID)

	w := doJSON(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 while a pending item references the preset", w.Code)
	}
	if msg := errorMessage(t, w); msg != "Cannot delete a price preset referenced by queued sale items" {
		t.Fatalf("unexpected error message %q", msg)
	}

	// a terminal reference no longer blocks the delete
	item := store.queue[1]
	item.Status = sales.StatusCompleted
	store.queue[1] = item

	w = doJSON(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 once the reference is terminal", w.Code)
	}
	if _, ok := store.presets[preset.ID]; ok {
		t.Fatal("preset still present after delete")
	}
}

// vanishedPresetStore simulates a preset deleted by a concurrent request
// after the ownership check already loaded it.
type vanishedPresetStore struct {
	*stubStore
}

func (s *vanishedPresetStore) DeletePricePresetGuarded(id int) error {
	return sql.ErrNoRows
}

func TestDeletePreset_ConcurrentlyRemoved(t *testing.T) {
	store := newStubStore()
	preset := seedPreset(store, testUser.ID)
	r := newTestRouter(PricePresetModule(&vanishedPresetStore{store}))

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/price-presets/%d", preset.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for a preset deleted underneath us", w.Code)
	}
}
