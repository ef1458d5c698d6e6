package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		major string
		want  int64
	}{
		{"8.99", 899},
		{"11.49", 1149},
		{"0.01", 1},
		{"10", 1000},
		{"10.005", 1001},
		{"10.004", 1000},
		{"0", 0},
	}
	for _, tc := range cases {
		got := MinorUnits(decimal.RequireFromString(tc.major))
		if got != tc.want {
			t.Errorf("MinorUnits(%s) = %d, want %d", tc.major, got, tc.want)
		}
	}
}

func TestVariantPriceMinorUnits(t *testing.T) {
	v := Variant{Price: decimal.RequireFromString("49.99")}
	if got := v.PriceMinorUnits(); got != 4999 {
		t.Fatalf("PriceMinorUnits = %d, want 4999", got)
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "completed", "failed", "refunded"} {
		if !ValidOrderStatus(s) {
			t.Errorf("ValidOrderStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "shipped", "PENDING", "canceled"} {
		if ValidOrderStatus(s) {
			t.Errorf("ValidOrderStatus(%q) = true, want false", s)
		}
	}
}

func TestOrderMetadataString(t *testing.T) {
	o := Order{Metadata: map[string]interface{}{
		"payment_intent_id": "pi_123",
		"retries":           3,
	}}
	if got := o.MetadataString("payment_intent_id"); got != "pi_123" {
		t.Errorf("MetadataString(payment_intent_id) = %q", got)
	}
	if got := o.MetadataString("retries"); got != "" {
		t.Errorf("non-string value should yield empty, got %q", got)
	}
	if got := o.MetadataString("missing"); got != "" {
		t.Errorf("missing key should yield empty, got %q", got)
	}
	if got := (Order{}).MetadataString("any"); got != "" {
		t.Errorf("nil metadata should yield empty, got %q", got)
	}
}

func TestSyncReportAdd(t *testing.T) {
	r := &SyncReport{Healthy: true}
	r.Add(SyncIssue{Type: SyncPriceMismatch, Severity: SyncWarning})
	if !r.Healthy || r.Warnings != 1 || r.Errors != 0 {
		t.Fatalf("warning flipped health: %+v", r)
	}
	r.Add(SyncIssue{Type: SyncMissingInProvider, Severity: SyncError})
	if r.Healthy || r.Errors != 1 {
		t.Fatalf("error did not flip health: %+v", r)
	}
}

func TestDiscountRedeemable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := 10

	d := Discount{IsActive: true}
	if !d.Redeemable(now) {
		t.Error("active, no limits: want redeemable")
	}
	d.IsActive = false
	if d.Redeemable(now) {
		t.Error("inactive: want not redeemable")
	}
	d = Discount{IsActive: true, ExpiresAt: &past}
	if d.Redeemable(now) {
		t.Error("expired: want not redeemable")
	}
	d = Discount{IsActive: true, ExpiresAt: &future, MaxRedemptions: &limit, RedemptionCount: 10}
	if d.Redeemable(now) {
		t.Error("at redemption cap: want not redeemable")
	}
	d.RedemptionCount = 9
	if !d.Redeemable(now) {
		t.Error("under cap and unexpired: want redeemable")
	}
}

func TestKindOf(t *testing.T) {
	err := Errorf(KindValidation, "bad input")
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf tagged = %s", KindOf(err))
	}
	wrapped := WrapError(KindRateLimited, errors.New("429"), "slow down")
	if KindOf(wrapped) != KindRateLimited {
		t.Errorf("KindOf wrapped = %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped.Unwrap(), wrapped.Err) {
		t.Error("Unwrap should expose the underlying error")
	}
	if KindOf(errors.New("plain")) != KindUpstream {
		t.Errorf("untagged errors should default to upstream, got %s", KindOf(errors.New("plain")))
	}
}
