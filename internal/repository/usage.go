package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

const (
	usageCountsSQL = `SELECT code, COUNT(*) FROM discount_usages
		WHERE code = ANY($1) GROUP BY code`

	customerUsedSQL = `SELECT DISTINCT code FROM discount_usages
		WHERE customer_id = $1 AND code = ANY($2)`

	lockUsageCountSQL = `SELECT COUNT(*) FROM discount_usages WHERE code = $1`

	insertUsageSQL = `INSERT INTO discount_usages (code, customer_id, order_id)
		VALUES ($1, NULLIF($2, ''), $3)`

	bumpDiscountCountSQL = `UPDATE discounts
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE UPPER(code) = $1`
)

// UsageRepository reads and writes the usage ledger.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a UsageRepository that uses the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Summary builds the read-only usage snapshot the engine evaluates against:
// redemption counts for the given codes, plus already-used flags for the
// customer when one is known.
func (r *UsageRepository) Summary(ctx context.Context, customerID string, codes []string) (discount.UsageSummary, error) {
	summary := discount.UsageSummary{
		Counts:         make(map[string]int, len(codes)),
		UsedByCustomer: make(map[string]bool),
	}
	if len(codes) == 0 {
		return summary, nil
	}

	rows, err := r.pool.Query(ctx, usageCountsSQL, codes)
	if err != nil {
		return summary, errors.Wrap(err, "query usage counts")
	}
	type countRow struct {
		Code  string
		Count int
	}
	counts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[countRow])
	if err != nil {
		return summary, errors.Wrap(err, "scan usage counts")
	}
	for _, c := range counts {
		summary.Counts[c.Code] = c.Count
	}

	if customerID == "" {
		return summary, nil
	}
	rows, err = r.pool.Query(ctx, customerUsedSQL, customerID, codes)
	if err != nil {
		return summary, errors.Wrap(err, "query customer usage")
	}
	used, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return summary, errors.Wrap(err, "scan customer usage")
	}
	for _, code := range used {
		summary.UsedByCustomer[code] = true
	}

	return summary, nil
}

// Redeem records one redemption per rule for the order, re-checking every
// usage limit against fresh counts inside a single transaction. Evaluation
// runs against a snapshot, so two concurrent checkouts can both see a code as
// available; the re-check here is what actually enforces the limit.
func (r *UsageRepository) Redeem(ctx context.Context, rules []*discount.Rule, customerID, orderID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return errors.Wrap(err, "begin redeem tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, rule := range rules {
		var count int
		if err := tx.QueryRow(ctx, lockUsageCountSQL, rule.Code).Scan(&count); err != nil {
			return errors.Wrapf(err, "count usages for %q", rule.Code)
		}
		fresh := discount.UsageSummary{Counts: map[string]int{rule.Code: count}}
		if discount.WouldExceedUsage(rule, fresh) {
			return errors.Wrapf(discount.ErrUsageExceeded, "code %q", rule.Code)
		}

		if _, err := tx.Exec(ctx, insertUsageSQL, rule.Code, customerID, orderID); err != nil {
			return errors.Wrapf(err, "insert usage for %q", rule.Code)
		}
		if _, err := tx.Exec(ctx, bumpDiscountCountSQL, rule.Code); err != nil {
			return errors.Wrapf(err, "bump usage count for %q", rule.Code)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit redeem tx")
	}
	return nil
}
