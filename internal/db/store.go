// exposes a Store interface that is passed to API handlers and the worker
package db

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/deviflow/deviflow/internal/model"
)

// Guard-condition sentinels surfaced to handlers as 409s.
var (
	ErrLastEnabledRule = errors.New("cannot delete the last enabled rule while automation is enabled")
	ErrPresetInUse     = errors.New("price preset is referenced by queued sale items")
)

// ScheduleRuleUpdate is a partial rule update; nil fields are left alone.
// Cross-type validation happens in the rules package before this is applied.
type ScheduleRuleUpdate struct {
	TimeOfDay             *string
	DaysOfWeek            []string
	IntervalMinutes       *int
	DeviationsPerInterval *int
	DailyQuota            *int
	Priority              *int
	Enabled               *bool
}

// PricePresetUpdate is a partial preset update; nil fields are left alone.
type PricePresetUpdate struct {
	Name        *string
	Currency    *string
	Description *string
	IsDefault   *bool
	SortOrder   *int
	PricingMode *string
	Price       *int
	MinPrice    *int
	MaxPrice    *int
}

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	GetUserByAPIKey(key string) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error
	SetUserAPIKey(id int, key string) error

	// deviation functions
	CreateDeviation(d model.Deviation) (model.Deviation, error)
	GetDeviationByID(id int) (model.Deviation, error)
	ListDeviations(userID int, status *string, galleryID *int) ([]model.Deviation, error)
	UpdateDeviation(id int, title, description *string, galleryID *int) (model.Deviation, error)
	DeleteDeviation(id int) error
	PublishDeviation(id int, at time.Time) error
	ScheduleDeviation(id int, at time.Time) error
	ListDueScheduledDeviations(now time.Time, limit int) ([]model.Deviation, error)

	// gallery functions
	CreateGallery(userID int, name string, description *string) (model.Gallery, error)
	GetGalleryByID(id int) (model.Gallery, error)
	ListGalleries(userID int) ([]model.Gallery, error)
	UpdateGallery(id int, name, description *string, sortOrder *int) (model.Gallery, error)
	DeleteGallery(id int) error
	AddDeviationToGallery(galleryID, deviationID int) error
	RemoveDeviationFromGallery(galleryID, deviationID int) error
	ReorderGalleryItems(galleryID int, deviationIDs []int) error

	// automation functions
	CreateAutomation(userID, galleryID int, name string, enabled bool) (model.Automation, error)
	GetAutomationByID(id int) (model.Automation, error)
	ListAutomations(userID int) ([]model.Automation, error)
	UpdateAutomation(id int, name *string, galleryID *int, enabled *bool) (model.Automation, error)
	DeleteAutomation(id int) error
	ListEnabledAutomations() ([]model.Automation, error)

	// schedule rule functions
	CreateScheduleRule(r model.AutomationScheduleRule) (model.AutomationScheduleRule, error)
	GetScheduleRuleByID(id int) (model.AutomationScheduleRule, error)
	ListScheduleRules(automationID int) ([]model.AutomationScheduleRule, error)
	UpdateScheduleRule(id int, upd ScheduleRuleUpdate) (model.AutomationScheduleRule, error)
	DeleteScheduleRuleGuarded(id int) error
	MarkRuleRun(id int, at time.Time) error
	CountAutomationPostsSince(automationID int, since time.Time) (int, error)
	NextDraftDeviations(galleryID, limit int) ([]model.Deviation, error)
	RecordAutomationPost(automationID, ruleID, deviationID int, at time.Time) error

	// price preset functions
	CreatePricePreset(p model.PricePreset) (model.PricePreset, error)
	GetPricePresetByID(id int) (model.PricePreset, error)
	ListPricePresets(userID int) ([]model.PricePreset, error)
	UpdatePricePreset(id int, upd PricePresetUpdate) (model.PricePreset, error)
	DeletePricePresetGuarded(id int) error

	// sale queue functions
	EnqueueSaleItem(deviationID, pricePresetID int) (model.SaleQueueItem, error)
	HasActiveSaleItem(deviationID int) (bool, error)
	GetSaleQueueItemWithOwner(id int) (model.SaleQueueItem, int, error)
	ListSaleQueue(userID int, status *string, limit, offset int) ([]model.SaleQueueEntry, int, error)
	DeleteSaleQueueItem(id int) error
	SkipSaleItem(id int) (bool, error)
	ClaimPendingSaleItems(limit int) ([]model.SaleQueueItem, error)
	CompleteSaleItem(id int, at time.Time) error
	FailSaleItem(id int, errMsg string, retry bool) error
	PurgeTerminalSaleItems(olderThan time.Time) (int64, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
// required so linter doesn't complain
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}
