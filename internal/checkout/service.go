// Package checkout orchestrates cart evaluation and order-commit redemption
// around the pure discount engine.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
	"github.com/xenking/storefront-discounts/internal/metrics"
)

// ErrCatalogUnavailable is returned while no catalog snapshot is loaded yet.
var ErrCatalogUnavailable = errors.New("discount catalog not loaded")

// CatalogSource yields the current immutable catalog snapshot.
type CatalogSource interface {
	Snapshot() *discount.Catalog
}

// UsageSource reads the usage ledger and commits redemptions.
type UsageSource interface {
	Summary(ctx context.Context, customerID string, codes []string) (discount.UsageSummary, error)
	Redeem(ctx context.Context, rules []*discount.Rule, customerID, orderID string) error
}

// AuditSink persists applied-discount events after a successful commit.
type AuditSink interface {
	RecordApplied(ctx context.Context, orderID string, applied []discount.Applied) error
}

// Service evaluates carts against the live catalog and handles checkout
// commits. Evaluation itself stays pure; this layer supplies the snapshot
// inputs and owns all side effects.
type Service struct {
	catalog CatalogSource
	usage   UsageSource
	audit   AuditSink
	now     func() time.Time
}

// NewService creates a checkout Service with the required dependencies.
func NewService(catalog CatalogSource, usage UsageSource, audit AuditSink) *Service {
	return &Service{
		catalog: catalog,
		usage:   usage,
		audit:   audit,
		now:     time.Now,
	}
}

// Evaluate resolves the discounts for one cart snapshot. Safe to call on
// every cart mutation.
func (s *Service) Evaluate(ctx context.Context, cart *discount.Cart) (*discount.Result, error) {
	res, _, err := s.evaluate(ctx, cart)
	return res, err
}

func (s *Service) evaluate(ctx context.Context, cart *discount.Cart) (*discount.Result, *discount.Catalog, error) {
	cat := s.catalog.Snapshot()
	if cat == nil {
		return nil, nil, ErrCatalogUnavailable
	}

	codes := make([]string, 0, cat.Len())
	for _, r := range cat.Rules() {
		codes = append(codes, r.Code)
	}
	usage, err := s.usage.Summary(ctx, cart.CustomerID, codes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load usage summary")
	}

	start := time.Now()
	res := discount.Evaluate(cat, cart, s.now(), usage)
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	for _, a := range res.Applied {
		metrics.DiscountsApplied.WithLabelValues(a.Kind).Inc()
	}
	for _, rej := range res.Rejected {
		metrics.DiscountsRejected.WithLabelValues(string(rej.Reason)).Inc()
	}

	return res, cat, nil
}

// Commit re-evaluates the cart at order-commit time and redeems the applied
// codes transactionally. The redeem re-checks every usage limit against fresh
// counts inside the same transaction that increments them, so concurrent
// checkouts cannot both consume the last allowed use.
func (s *Service) Commit(ctx context.Context, cart *discount.Cart, orderID string) (*discount.Result, error) {
	res, cat, err := s.evaluate(ctx, cart)
	if err != nil {
		return nil, err
	}

	if len(res.Applied) > 0 {
		rules := make([]*discount.Rule, 0, len(res.Applied))
		for _, a := range res.Applied {
			r, ok := cat.ByCode(a.Code)
			if !ok {
				return nil, errors.Errorf("applied code %q missing from catalog", a.Code)
			}
			rules = append(rules, r)
		}

		if err := s.usage.Redeem(ctx, rules, cart.CustomerID, orderID); err != nil {
			if errors.Is(err, discount.ErrUsageExceeded) {
				metrics.Redemptions.WithLabelValues("conflict").Inc()
			} else {
				metrics.Redemptions.WithLabelValues("error").Inc()
			}
			return nil, errors.Wrap(err, "redeem discounts")
		}

		if err := s.audit.RecordApplied(ctx, orderID, res.Applied); err != nil {
			return nil, errors.Wrap(err, "record audit events")
		}
	}

	metrics.Redemptions.WithLabelValues("success").Inc()
	return res, nil
}
