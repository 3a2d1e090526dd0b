// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the marketplace.
// It tracks order creation, payment activity, and listing inventory health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal *Counter
	orderAmountTotal  *Counter
	paymentTotal      *Counter
	outOfStockTotal   *Counter

	// Gauge metrics (point-in-time values)
	activeListingCount  *Gauge
	soldOutListingCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	listingProvider ListingMetricsProvider
}

// ListingMetricsProvider provides listing data for periodic metrics collection.
// This interface allows the telemetry layer to query catalog state without
// depending on the listing domain directly.
type ListingMetricsProvider interface {
	// GetActiveListingCount returns the number of currently active listings
	GetActiveListingCount(ctx context.Context) (int64, error)

	// GetSoldOutListingCount returns the number of listings with zero quantity
	GetSoldOutListingCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	ListingProvider ListingMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		listingProvider: cfg.ListingProvider,
	}

	var err error

	// Order metrics
	bm.orderCreatedTotal, err = NewCounter(
		cfg.Meter,
		"market_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"market_order_amount_total",
		"Total order amount in minor currency units (cents)",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"market_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Checkout metrics
	bm.outOfStockTotal, err = NewCounter(
		cfg.Meter,
		"market_checkout_out_of_stock_total",
		"Total number of checkouts rejected for insufficient stock",
		"{rejections}",
	)
	if err != nil {
		return nil, err
	}

	// Listing gauge metrics
	bm.activeListingCount, err = NewGauge(
		cfg.Meter,
		"market_listing_active_count",
		"Number of currently active listings",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	bm.soldOutListingCount, err = NewGauge(
		cfg.Meter,
		"market_listing_sold_out_count",
		"Number of listings with zero remaining quantity",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderCreated records an order creation event.
// This should be called from the application layer when an order is created.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context) {
	bm.orderCreatedTotal.Inc(ctx)
}

// RecordOrderAmount records the order amount.
// Amount should be in the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, amountCents int64) {
	bm.orderAmountTotal.Add(ctx, amountCents)
}

// RecordOrderWithAmount is a convenience method that records both order count and amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, amount decimal.Decimal) {
	bm.RecordOrderCreated(ctx)

	// Convert to cents (multiply by 100)
	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordOrderAmount(ctx, amountCents)
}

// =============================================================================
// Checkout Metrics
// =============================================================================

// RecordOutOfStockRejection records a checkout rejected for insufficient stock.
func (bm *BusinessMetrics) RecordOutOfStockRejection(ctx context.Context) {
	bm.outOfStockTotal.Inc(ctx)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment records a payment transaction.
// This should be called when a payment webhook or intent result is processed.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Listing Metrics
// =============================================================================

// RecordActiveListingCount records the number of currently active listings.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordActiveListingCount(ctx context.Context, count int64) {
	bm.activeListingCount.Record(ctx, count)
}

// RecordSoldOutListingCount records the number of sold-out listings.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordSoldOutListingCount(ctx context.Context, count int64) {
	bm.soldOutListingCount.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects listing metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectListingMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectListingMetrics(ctx)
		}
	}
}

// collectListingMetrics collects listing gauge metrics.
func (bm *BusinessMetrics) collectListingMetrics(ctx context.Context) {
	if bm.listingProvider == nil {
		bm.logger.Debug("No listing provider configured, skipping listing metrics collection")
		return
	}

	activeCount, err := bm.listingProvider.GetActiveListingCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get active listing count", zap.Error(err))
	} else {
		bm.RecordActiveListingCount(ctx, activeCount)
	}

	soldOutCount, err := bm.listingProvider.GetSoldOutListingCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get sold-out listing count", zap.Error(err))
	} else {
		bm.RecordSoldOutListingCount(ctx, soldOutCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
