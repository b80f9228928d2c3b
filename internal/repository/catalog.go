package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

const (
	selectDiscountColumns = `id, code, type, active, starts_at, ends_at, stackable,
		usage_limit, usage_count, once_per_customer, first_order_only,
		minimum_amount, minimum_quantity,
		value, buy_quantity, pay_amount, get_quantity, get_discount_percent,
		gift_same_product, gift_product_ids, quantity_tiers, spend_amount,
		applies_to, category_ids, product_ids, exclude_category_ids, exclude_product_ids,
		trigger_coupon_codes, activates_coupon_codes`

	listDiscountsSQL = `SELECT ` + selectDiscountColumns + ` FROM discounts ORDER BY code`

	insertDiscountSQL = `INSERT INTO discounts (
		code, type, active, starts_at, ends_at, stackable,
		usage_limit, once_per_customer, first_order_only,
		minimum_amount, minimum_quantity,
		value, buy_quantity, pay_amount, get_quantity, get_discount_percent,
		gift_same_product, gift_product_ids, quantity_tiers, spend_amount,
		applies_to, category_ids, product_ids, exclude_category_ids, exclude_product_ids,
		trigger_coupon_codes, activates_coupon_codes
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
	) RETURNING id`

	insertDiscountIfAbsentSQL = `INSERT INTO discounts (
		code, type, active, starts_at, ends_at, stackable,
		usage_limit, once_per_customer, first_order_only,
		minimum_amount, minimum_quantity,
		value, buy_quantity, pay_amount, get_quantity, get_discount_percent,
		gift_same_product, gift_product_ids, quantity_tiers, spend_amount,
		applies_to, category_ids, product_ids, exclude_category_ids, exclude_product_ids,
		trigger_coupon_codes, activates_coupon_codes
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
	) ON CONFLICT ((UPPER(code))) DO NOTHING RETURNING id`
)

// CatalogRepository loads and stores discount definitions.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LoadCatalog reads every discount row, parses each at the boundary, and
// builds the catalog from the valid ones. Invalid rows come back as
// RecordErrors so the caller can log them; they never abort the load.
func (r *CatalogRepository) LoadCatalog(ctx context.Context) (*discount.Catalog, []discount.RecordError, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query discounts")
	}

	records, err := pgx.CollectRows(rows, scanDiscountRecord)
	if err != nil {
		return nil, nil, errors.Wrap(err, "scan discounts")
	}

	var (
		rules   []*discount.Rule
		invalid []discount.RecordError
	)
	for _, rec := range records {
		rule, err := rec.Parse()
		if err != nil {
			invalid = append(invalid, discount.RecordError{Code: rec.Code, Err: err})
			continue
		}
		rules = append(rules, rule)
	}

	catalog, err := discount.NewCatalog(rules)
	if err != nil {
		return nil, invalid, errors.Wrap(err, "build catalog")
	}
	return catalog, invalid, nil
}

// Create validates the record and inserts it. The stored row keeps the flat
// shape; validation happens through the same Parse boundary evaluation uses.
func (r *CatalogRepository) Create(ctx context.Context, rec discount.Record) (string, error) {
	if _, err := rec.Parse(); err != nil {
		return "", err
	}

	var id string
	err := r.pool.QueryRow(ctx, insertDiscountSQL,
		discount.CanonicalCode(rec.Code), rec.Type, rec.Active, rec.StartsAt, rec.EndsAt, rec.Stackable,
		rec.UsageLimit, rec.OncePerCustomer, rec.FirstOrderOnly,
		rec.MinimumAmount, rec.MinimumQuantity,
		rec.Value, rec.BuyQuantity, rec.PayAmount, rec.GetQuantity, rec.GetDiscountPercent,
		rec.GiftSameProduct, jsonArray(rec.GiftProductIDs), jsonTiers(rec.QuantityTiers), rec.SpendAmount,
		scopeOrAll(rec.AppliesTo), jsonArray(rec.CategoryIDs), jsonArray(rec.ProductIDs),
		jsonArray(rec.ExcludeCategoryIDs), jsonArray(rec.ExcludeProductIDs),
		jsonArray(rec.TriggerCouponCodes), jsonArray(rec.ActivatesCouponCodes),
	).Scan(&id)
	if err != nil {
		return "", errors.Wrapf(err, "insert discount %q", rec.Code)
	}
	return id, nil
}

// CreateIfAbsent inserts the record unless a rule with the same code already
// exists. It reports whether a row was inserted.
func (r *CatalogRepository) CreateIfAbsent(ctx context.Context, rec discount.Record) (bool, error) {
	if _, err := rec.Parse(); err != nil {
		return false, err
	}

	var id string
	err := r.pool.QueryRow(ctx, insertDiscountIfAbsentSQL,
		discount.CanonicalCode(rec.Code), rec.Type, rec.Active, rec.StartsAt, rec.EndsAt, rec.Stackable,
		rec.UsageLimit, rec.OncePerCustomer, rec.FirstOrderOnly,
		rec.MinimumAmount, rec.MinimumQuantity,
		rec.Value, rec.BuyQuantity, rec.PayAmount, rec.GetQuantity, rec.GetDiscountPercent,
		rec.GiftSameProduct, jsonArray(rec.GiftProductIDs), jsonTiers(rec.QuantityTiers), rec.SpendAmount,
		scopeOrAll(rec.AppliesTo), jsonArray(rec.CategoryIDs), jsonArray(rec.ProductIDs),
		jsonArray(rec.ExcludeCategoryIDs), jsonArray(rec.ExcludeProductIDs),
		jsonArray(rec.TriggerCouponCodes), jsonArray(rec.ActivatesCouponCodes),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "insert discount %q", rec.Code)
	}
	return true, nil
}

func scanDiscountRecord(row pgx.CollectableRow) (discount.Record, error) {
	var (
		rec       discount.Record
		startsAt  *time.Time
		endsAt    *time.Time
		minAmount *decimal.Decimal

		giftIDs, tiers                     []byte
		categoryIDs, productIDs            []byte
		excludeCategoryIDs, excludeProduct []byte
		triggerCodes, activatesCodes       []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Code, &rec.Type, &rec.Active, &startsAt, &endsAt, &rec.Stackable,
		&rec.UsageLimit, &rec.UsageCount, &rec.OncePerCustomer, &rec.FirstOrderOnly,
		&minAmount, &rec.MinimumQuantity,
		&rec.Value, &rec.BuyQuantity, &rec.PayAmount, &rec.GetQuantity, &rec.GetDiscountPercent,
		&rec.GiftSameProduct, &giftIDs, &tiers, &rec.SpendAmount,
		&rec.AppliesTo, &categoryIDs, &productIDs, &excludeCategoryIDs, &excludeProduct,
		&triggerCodes, &activatesCodes,
	)
	if err != nil {
		return rec, err
	}
	rec.StartsAt = startsAt
	rec.EndsAt = endsAt
	rec.MinimumAmount = minAmount

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{giftIDs, &rec.GiftProductIDs},
		{tiers, &rec.QuantityTiers},
		{categoryIDs, &rec.CategoryIDs},
		{productIDs, &rec.ProductIDs},
		{excludeCategoryIDs, &rec.ExcludeCategoryIDs},
		{excludeProduct, &rec.ExcludeProductIDs},
		{triggerCodes, &rec.TriggerCouponCodes},
		{activatesCodes, &rec.ActivatesCouponCodes},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return rec, errors.Wrapf(err, "decode json column for discount %q", rec.Code)
		}
	}
	return rec, nil
}

func jsonArray(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return data
}

func jsonTiers(v []discount.TierRecord) []byte {
	if v == nil {
		v = []discount.TierRecord{}
	}
	data, _ := json.Marshal(v)
	return data
}

func scopeOrAll(s string) string {
	if s == "" {
		return string(discount.ScopeAll)
	}
	return s
}
