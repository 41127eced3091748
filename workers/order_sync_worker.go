package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// OrderSyncWorker polls the order service for new orders and settles them.
type OrderSyncWorker struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	settler  OrderSettler
	logger   *zap.Logger
	lastSync time.Time
	now      func() time.Time
}

func NewOrderSyncWorker(baseURL, token string, client *http.Client, settler OrderSettler, logger *zap.Logger) *OrderSyncWorker {
	now := func() time.Time { return time.Now().UTC() }
	return &OrderSyncWorker{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: client,
		settler:    settler,
		logger:     logger,
		lastSync:   now().Add(-24 * time.Hour),
		now:        now,
	}
}

func (w *OrderSyncWorker) FetchOrders(ctx context.Context, since time.Time) ([]Order, error) {
	u, err := url.Parse(w.BaseURL + "/api/v1/public/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.Token)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("order service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Orders []Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode order service response: %w", err)
	}
	return response.Orders, nil
}

// SyncOnce settles every order changed since the last successful sync. The
// watermark only moves when no order failed transiently, so the window is
// retried on the next tick; replays are absorbed by the order ref.
func (w *OrderSyncWorker) SyncOnce(ctx context.Context) error {
	pollTime := w.now()

	orders, err := w.FetchOrders(ctx, w.lastSync)
	if err != nil {
		return err
	}

	var failed int
	for _, o := range orders {
		res, err := w.settler.SettleOrder(ctx, o.ID, o.UserID, o.ProductName, o.Amount)
		switch {
		case err == nil:
			if !res.Replayed {
				w.logger.Debug("[ORDER_SYNC] order settled", zap.String("order_ref", o.ID), zap.Bool("first_purchase", res.IsFirstPurchase))
			}
		case permanent(err):
			w.logger.Warn("[ORDER_SYNC] skipping order", zap.String("order_ref", o.ID), zap.Error(err))
		default:
			failed++
			w.logger.Error("[ORDER_SYNC] order settlement failed", zap.String("order_ref", o.ID), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d order(s) failed to settle", failed, len(orders))
	}

	w.lastSync = pollTime
	if len(orders) > 0 {
		w.logger.Info("[ORDER_SYNC] batch settled", zap.Int("orders", len(orders)))
	}
	return nil
}

// Run polls until ctx is cancelled.
func (w *OrderSyncWorker) Run(ctx context.Context, interval time.Duration) {
	w.logger.Info("[ORDER_SYNC] polling started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("[ORDER_SYNC] polling stopped")
			return
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("[ORDER_SYNC] sync failed", zap.Time("since", w.lastSync), zap.Error(err))
			}
		}
	}
}
