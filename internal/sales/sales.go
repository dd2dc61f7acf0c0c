// Package sales holds the exclusive-sale queue state machine and price
// preset resolution. The HTTP layer and the worker both go through these
// helpers so the transition rules live in one place.
package sales

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

// MaxAttempts caps retries: after the third failed attempt an item stays
// failed and is never retried automatically.
const MaxAttempts = 3

const (
	PricingFixed = "fixed"
	PricingRange = "range"
)

// Terminal reports whether status admits no further transitions.
func Terminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Active reports whether an item occupies the queue: a deviation with an
// active item cannot be enqueued again.
func Active(status string) bool {
	return status == StatusPending || status == StatusProcessing
}

// CanTransition encodes the strict forward state machine:
//
//	pending -> processing -> completed
//	processing -> pending (retry, bounded by MaxAttempts)
//	processing -> failed
//	pending -> skipped (user bypass)
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusSkipped
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed || to == StatusPending
	}
	return false
}

// NextOnFailure decides where a processing item lands after a failed
// attempt: back to pending while attempts remain, otherwise failed.
func NextOnFailure(attempts int) string {
	if attempts < MaxAttempts {
		return StatusPending
	}
	return StatusFailed
}

// Preset is the pricing slice of a price preset the resolver needs.
type Preset struct {
	PricingMode string
	Price       *int
	MinPrice    *int
	MaxPrice    *int
}

// ValidatePreset checks the mode variant: fixed requires price and forbids
// bounds, range requires both bounds with min <= max and forbids price.
func ValidatePreset(p Preset) error {
	switch p.PricingMode {
	case PricingFixed:
		if p.Price == nil {
			return errors.New("fixed pricing requires price")
		}
		if p.MinPrice != nil || p.MaxPrice != nil {
			return errors.New("fixed pricing cannot set min_price or max_price")
		}
		if *p.Price < 0 {
			return errors.New("price must not be negative")
		}
	case PricingRange:
		if p.MinPrice == nil || p.MaxPrice == nil {
			return errors.New("range pricing requires min_price and max_price")
		}
		if p.Price != nil {
			return errors.New("range pricing cannot set price")
		}
		if *p.MinPrice < 0 {
			return errors.New("min_price must not be negative")
		}
		if *p.MinPrice > *p.MaxPrice {
			return errors.New("min_price must not exceed max_price")
		}
	default:
		return fmt.Errorf("unknown pricing_mode %q", p.PricingMode)
	}
	return nil
}

// ResolvePrice returns the amount (minor currency units) to charge for one
// sale. Range presets draw a fresh uniform value per call, which is why the
// worker resolves at processing time rather than at enqueue time.
func ResolvePrice(p Preset) (int, error) {
	if err := ValidatePreset(p); err != nil {
		return 0, err
	}
	if p.PricingMode == PricingFixed {
		return *p.Price, nil
	}
	return *p.MinPrice + rand.Intn(*p.MaxPrice-*p.MinPrice+1), nil
}
