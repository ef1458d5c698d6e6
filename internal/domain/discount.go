package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// Discount is an internally issued code. Provider promotion codes are not
// mirrored here; they are resolved against the provider at checkout time.
type Discount struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	DiscountType    DiscountType     `json:"discountType"`
	Value           decimal.Decimal  `json:"value"`
	MinOrderAmount  *decimal.Decimal `json:"minOrderAmount,omitempty"`
	FirstTimeOnly   bool             `json:"firstTimeOnly"`
	MaxRedemptions  *int             `json:"maxRedemptions,omitempty"`
	RedemptionCount int              `json:"redemptionCount"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Redeemable reports whether the code can still be applied at the given time.
func (d Discount) Redeemable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false
	}
	if d.MaxRedemptions != nil && d.RedemptionCount >= *d.MaxRedemptions {
		return false
	}
	return true
}
