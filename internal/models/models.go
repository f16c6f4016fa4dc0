package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type ExtraCategory string

const (
	CategoryRice  ExtraCategory = "rice"
	CategoryEgg   ExtraCategory = "egg"
	CategoryOther ExtraCategory = "other"
)

type InventoryStatus string

const (
	StatusSufficient InventoryStatus = "sufficient"
	StatusLow        InventoryStatus = "low"
)

type User struct {
	ID          string
	AuthSubject string
	Email       string
	Name        string
	Phone       string
	Role        Role

	LunchCount  int
	DinnerCount int
	HasUpdated  bool

	DefaultMealEnabled bool
	DefaultLunchCount  int
	DefaultDinnerCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Extra is one append-only ledger row for an incidental purchase billed to a
// member. Category is fixed at creation; rows are never mutated or deleted.
type Extra struct {
	ID          string
	UserID      string
	Category    ExtraCategory
	Description string
	Amount      decimal.Decimal
	Date        string
	CreatedAt   time.Time
}

type Contribution struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Description string
	Date        string
	CreatedAt   time.Time
}

type InventoryItem struct {
	ID        string
	Item      string
	Quantity  string
	Status    InventoryStatus
	Price     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealEntry is one member's submitted counts for one day. Dates are stored as
// YYYY-MM-DD strings so range filters are plain string comparisons.
type MealEntry struct {
	UserID    string
	Date      string
	Lunch     int
	Dinner    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Message   string
	Read      bool
	CreatedAt time.Time
}

type APIToken struct {
	ID              string
	Name            string
	TokenHash       string
	CreatedByUserID string
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}
