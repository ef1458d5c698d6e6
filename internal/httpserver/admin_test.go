package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/flagcache"
	"coldpress-backend/internal/service/catalogsync"
	"coldpress-backend/internal/service/emailqueue"
)

type stubAdminOrders struct {
	order *domain.Order
	err   error

	lastStatus string
	lastAmount *int64
}

func (s *stubAdminOrders) UpdateStatus(_ context.Context, _, status string) (*domain.Order, error) {
	s.lastStatus = status
	return s.order, s.err
}

func (s *stubAdminOrders) Refund(_ context.Context, _ string, amount *int64) (*domain.Order, error) {
	s.lastAmount = amount
	return s.order, s.err
}

type stubSync struct {
	report      *domain.SyncReport
	result      *catalogsync.RepairResult
	statusCalls int
}

func (s *stubSync) Status(context.Context) (*domain.SyncReport, error) {
	s.statusCalls++
	return s.report, nil
}

func (s *stubSync) Repair(context.Context) (*catalogsync.RepairResult, error) {
	return s.result, nil
}

type stubDrainer struct {
	result emailqueue.Result
	err    error
}

func (s *stubDrainer) Drain(context.Context) (emailqueue.Result, error) {
	return s.result, s.err
}

func TestAdminStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load order: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.Errorf(domain.KindValidation, "bad status"), http.StatusBadRequest},
		{domain.Errorf(domain.KindIntegrity, "no payment intent"), http.StatusConflict},
		{errors.New("provider down"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := adminStatus(tc.err); got != tc.want {
			t.Errorf("adminStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestOrderStatusHandler(t *testing.T) {
	router := newTestRouter()
	svc := &stubAdminOrders{order: &domain.Order{ID: "order-1", Status: domain.OrderCompleted}}
	router.POST("/orders/:id/status", orderStatusHandler(svc))

	w := doJSON(t, router, http.MethodPost, "/orders/order-1/status", `{"status":"completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if svc.lastStatus != "completed" {
		t.Errorf("service got status %q", svc.lastStatus)
	}
}

func TestOrderStatusHandlerUnknownOrder(t *testing.T) {
	router := newTestRouter()
	svc := &stubAdminOrders{err: domain.ErrNotFound}
	router.POST("/orders/:id/status", orderStatusHandler(svc))

	w := doJSON(t, router, http.MethodPost, "/orders/order-9/status", `{"status":"completed"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestOrderRefundHandler(t *testing.T) {
	router := newTestRouter()
	svc := &stubAdminOrders{order: &domain.Order{ID: "order-1", PaymentStatus: domain.PaymentPartialRefund}}
	router.POST("/orders/:id/refund", orderRefundHandler(svc))

	w := doJSON(t, router, http.MethodPost, "/orders/order-1/refund", `{"amount":500}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if svc.lastAmount == nil || *svc.lastAmount != 500 {
		t.Errorf("service got amount %v", svc.lastAmount)
	}
}

func TestOrderRefundHandlerFullRefundOmitsAmount(t *testing.T) {
	router := newTestRouter()
	svc := &stubAdminOrders{order: &domain.Order{ID: "order-1"}}
	router.POST("/orders/:id/refund", orderRefundHandler(svc))

	w := doJSON(t, router, http.MethodPost, "/orders/order-1/refund", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if svc.lastAmount != nil {
		t.Errorf("omitted amount must reach the service as nil, got %v", svc.lastAmount)
	}
}

func TestSyncStatusHandlerServesFromCache(t *testing.T) {
	router := newTestRouter()
	sync := &stubSync{report: &domain.SyncReport{Healthy: true}}
	cache := flagcache.New(time.Minute, func(ctx context.Context) (*domain.SyncReport, error) {
		return sync.Status(ctx)
	})
	router.GET("/sync/status", syncStatusHandler(cache))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}
	if sync.statusCalls != 1 {
		t.Fatalf("repeated polls should hit the cache, got %d engine calls", sync.statusCalls)
	}
}

func TestSyncRepairHandlerInvalidatesCache(t *testing.T) {
	router := newTestRouter()
	sync := &stubSync{
		report: &domain.SyncReport{Healthy: true},
		result: &catalogsync.RepairResult{PricesCreated: 2},
	}
	cache := flagcache.New(time.Minute, func(ctx context.Context) (*domain.SyncReport, error) {
		return sync.Status(ctx)
	})
	router.GET("/sync/status", syncStatusHandler(cache))
	router.POST("/sync/repair", syncRepairHandler(sync, cache))

	get := func() {
		req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	get()
	get()
	if sync.statusCalls != 1 {
		t.Fatalf("warmup: engine calls = %d", sync.statusCalls)
	}

	w := doJSON(t, router, http.MethodPost, "/sync/repair", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("repair status = %d", w.Code)
	}
	var result catalogsync.RepairResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.PricesCreated != 2 {
		t.Errorf("result = %+v", result)
	}

	get()
	if sync.statusCalls != 2 {
		t.Fatalf("a repair must invalidate the status cache, engine calls = %d", sync.statusCalls)
	}
}

func TestDrainQueueHandler(t *testing.T) {
	router := newTestRouter()
	drainer := &stubDrainer{result: emailqueue.Result{Processed: 3, Successful: 2, Failed: 1}}
	router.GET("/cron/process-email-queue", drainQueueHandler(drainer))

	req := httptest.NewRequest(http.MethodGet, "/cron/process-email-queue", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result emailqueue.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result != drainer.result {
		t.Errorf("result = %+v", result)
	}
}

func TestDrainQueueHandlerError(t *testing.T) {
	router := newTestRouter()
	drainer := &stubDrainer{err: errors.New("db down")}
	router.GET("/cron/process-email-queue", drainQueueHandler(drainer))

	req := httptest.NewRequest(http.MethodGet, "/cron/process-email-queue", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
