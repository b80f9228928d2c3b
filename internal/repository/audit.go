package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

const insertAuditSQL = `INSERT INTO audit_log (id, action, code, field_name, old_value, new_value, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// FieldChange is one field-level change record from an admin mutation.
type FieldChange struct {
	Action    string
	Code      string
	FieldName string
	OldValue  string
	NewValue  string
}

// AuditRepository appends immutable audit events. The engine itself never
// writes audit records; checkout and admin flows do, after it returns.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns an AuditRepository that uses the given pool.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// RecordApplied writes one "discount_applied" event per applied discount of a
// committed order.
func (r *AuditRepository) RecordApplied(ctx context.Context, orderID string, applied []discount.Applied) error {
	for _, a := range applied {
		payload := encodeAppliedPayload(orderID, a)
		_, err := r.pool.Exec(ctx, insertAuditSQL,
			uuid.New().String(), "discount_applied", a.Code, nil, nil, nil, payload,
		)
		if err != nil {
			return errors.Wrapf(err, "record applied discount %q", a.Code)
		}
	}
	return nil
}

// RecordFieldChange writes one field-level change record from an admin edit.
func (r *AuditRepository) RecordFieldChange(ctx context.Context, ch FieldChange) error {
	_, err := r.pool.Exec(ctx, insertAuditSQL,
		uuid.New().String(), ch.Action, ch.Code, ch.FieldName, ch.OldValue, ch.NewValue, nil,
	)
	if err != nil {
		return errors.Wrapf(err, "record field change for %q", ch.Code)
	}
	return nil
}

// encodeAppliedPayload renders the event payload with an explicit field set,
// keeping decimals as strings.
func encodeAppliedPayload(orderID string, a discount.Applied) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(orderID) })
		e.Field("discountId", func(e *jx.Encoder) { e.Str(a.DiscountID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(a.Code) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(a.Kind) })
		e.Field("amountOff", func(e *jx.Encoder) { e.Str(a.AmountOff.String()) })
		e.Field("freeShipping", func(e *jx.Encoder) { e.Bool(a.FreeShipping) })
		if a.Gift != nil {
			e.Field("giftProductId", func(e *jx.Encoder) { e.Str(a.Gift.ProductID) })
		}
	})
	return e.Bytes()
}
