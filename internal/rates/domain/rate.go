package rates

import (
	"time"

	"github.com/shopspring/decimal"
)

// MilkType identifies the milk variety a rate or delivery refers to.
type MilkType string

const (
	MilkTypeCow     MilkType = "cow"
	MilkTypeBuffalo MilkType = "buffalo"
)

// NormalizeMilkType validates a milk type string.
func NormalizeMilkType(value string) (MilkType, bool) {
	switch MilkType(value) {
	case MilkTypeCow, MilkTypeBuffalo:
		return MilkType(value), true
	default:
		return "", false
	}
}

// Session is the delivery window a rate applies to. SessionAny means the rate
// applies regardless of session and is a distinct key value from either
// concrete session.
type Session string

const (
	SessionMorning Session = "morning"
	SessionEvening Session = "evening"
	SessionAny     Session = ""
)

// NormalizeSession validates a concrete session string.
func NormalizeSession(value string) (Session, bool) {
	switch Session(value) {
	case SessionMorning, SessionEvening:
		return Session(value), true
	default:
		return "", false
	}
}

// Rate is a priced rule valid from a given date for a milk type and
// optionally a specific delivery session.
type Rate struct {
	ID            string          `json:"id"`
	MilkType      MilkType        `json:"milkType"`
	Session       Session         `json:"deliverySession"`
	PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Key is the uniqueness key of a rate. At most one rate may exist per key.
type Key struct {
	MilkType      MilkType
	Session       Session
	EffectiveFrom time.Time
}

// Key returns the uniqueness key of the rate.
func (r Rate) Key() Key {
	return Key{MilkType: r.MilkType, Session: r.Session, EffectiveFrom: DateOnly(r.EffectiveFrom)}
}

// DateOnly strips any time-of-day component, keeping the UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
