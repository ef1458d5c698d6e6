package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillingType string

const (
	BillingOneTime   BillingType = "one_time"
	BillingRecurring BillingType = "recurring"
)

type Product struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	IsActive        bool       `json:"isActive"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	StripeProductID *string    `json:"stripeProductId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Variant is one purchasable size/billing configuration of a product. Price is
// stored in major currency units; StockQuantity nil means untracked unless
// TrackInventory is set, in which case nil is a data-integrity problem.
type Variant struct {
	ID                     string          `json:"id"`
	ProductID              string          `json:"productId"`
	SizeKey                string          `json:"sizeKey"`
	Label                  string          `json:"label"`
	Price                  decimal.Decimal `json:"price"`
	BillingType            BillingType     `json:"billingType"`
	RecurringInterval      *string         `json:"recurringInterval,omitempty"`
	RecurringIntervalCount *int64          `json:"recurringIntervalCount,omitempty"`
	StripePriceID          *string         `json:"stripePriceId,omitempty"`
	StockQuantity          *int            `json:"stockQuantity,omitempty"`
	TrackInventory         bool            `json:"trackInventory"`
	IsActive               bool            `json:"isActive"`
	IsDefault              bool            `json:"isDefault"`
	DisplayOrder           int             `json:"displayOrder"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// PriceMinorUnits converts the stored major-unit price to integer minor units.
// This is the single conversion point between the two representations.
func (v Variant) PriceMinorUnits() int64 {
	return MinorUnits(v.Price)
}

// MinorUnits rounds a major-unit amount to integer cents.
func MinorUnits(major decimal.Decimal) int64 {
	return major.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
