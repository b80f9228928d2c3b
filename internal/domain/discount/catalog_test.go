package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordParseKinds(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		want    Kind
		wantErr string
	}{
		{
			name: "percentage",
			rec:  Record{Code: "p", Type: "percentage", Value: dp("15")},
			want: Percentage{Value: d("15")},
		},
		{
			name:    "percentage above 100",
			rec:     Record{Code: "p", Type: "percentage", Value: dp("101")},
			wantErr: "out of (0, 100]",
		},
		{
			name:    "percentage zero",
			rec:     Record{Code: "p", Type: "percentage", Value: dp("0")},
			wantErr: "out of (0, 100]",
		},
		{
			name:    "percentage missing value",
			rec:     Record{Code: "p", Type: "percentage"},
			wantErr: "value required",
		},
		{
			name: "fixed amount",
			rec:  Record{Code: "f", Type: "fixed_amount", Value: dp("9")},
			want: FixedAmount{Value: d("9")},
		},
		{
			name: "free shipping needs nothing",
			rec:  Record{Code: "s", Type: "free_shipping"},
			want: FreeShipping{},
		},
		{
			name: "buy x pay y",
			rec:  Record{Code: "b", Type: "buy_x_pay_y", BuyQuantity: 3, PayAmount: dp("100")},
			want: BuyXPayY{BuyQty: 3, PayAmount: d("100")},
		},
		{
			name:    "buy x pay y without quantity",
			rec:     Record{Code: "b", Type: "buy_x_pay_y", PayAmount: dp("100")},
			wantErr: "buy quantity",
		},
		{
			name: "buy x get y",
			rec: Record{
				Code: "g", Type: "buy_x_get_y",
				BuyQuantity: 2, GetQuantity: 1, GetDiscountPercent: dp("100"),
			},
			want: BuyXGetY{BuyQty: 2, GetQty: 1, GetDiscountPercent: d("100")},
		},
		{
			name: "gift product",
			rec:  Record{Code: "g", Type: "gift_product", GiftProductIDs: []string{"x"}},
			want: GiftProduct{GiftProductIDs: []string{"x"}},
		},
		{
			name:    "gift product without ids",
			rec:     Record{Code: "g", Type: "gift_product"},
			wantErr: "gift product ids required",
		},
		{
			name: "quantity discount",
			rec: Record{
				Code: "q", Type: "quantity_discount",
				QuantityTiers: []TierRecord{
					{MinQuantity: 2, DiscountPercent: d("10")},
					{MinQuantity: 5, DiscountPercent: d("20")},
				},
			},
			want: QuantityDiscount{Tiers: []Tier{
				{MinQuantity: 2, DiscountPercent: d("10")},
				{MinQuantity: 5, DiscountPercent: d("20")},
			}},
		},
		{
			name: "quantity tiers not increasing",
			rec: Record{
				Code: "q", Type: "quantity_discount",
				QuantityTiers: []TierRecord{
					{MinQuantity: 5, DiscountPercent: d("10")},
					{MinQuantity: 2, DiscountPercent: d("20")},
				},
			},
			wantErr: "strictly increasing",
		},
		{
			name: "spend x pay y",
			rec:  Record{Code: "s", Type: "spend_x_pay_y", SpendAmount: dp("200"), PayAmount: dp("100")},
			want: SpendXPayY{SpendAmount: d("200"), PayAmount: d("100")},
		},
		{
			name:    "spend x pay y with pay >= spend",
			rec:     Record{Code: "s", Type: "spend_x_pay_y", SpendAmount: dp("100"), PayAmount: dp("100")},
			wantErr: "must be in [0, spend amount",
		},
		{
			name:    "unknown type",
			rec:     Record{Code: "u", Type: "mystery"},
			wantErr: `unsupported discount type "mystery"`,
		},
		{
			name:    "empty code",
			rec:     Record{Code: "  ", Type: "percentage", Value: dp("10")},
			wantErr: "empty code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := tt.rec.Parse()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule.Kind)
		})
	}
}

func TestRecordParseCanonicalizesCodes(t *testing.T) {
	rec := Record{
		Code:                 " save10 ",
		Type:                 "percentage",
		Value:                dp("10"),
		TriggerCouponCodes:   []string{"vip "},
		ActivatesCouponCodes: []string{" bonus"},
	}

	rule, err := rec.Parse()
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", rule.Code)
	assert.Equal(t, []string{"VIP"}, rule.TriggerCouponCodes)
	assert.Equal(t, []string{"BONUS"}, rule.ActivatesCouponCodes)
}

func TestRecordParseScopes(t *testing.T) {
	rec := Record{
		Code: "c", Type: "percentage", Value: dp("10"),
		AppliesTo: "category", CategoryIDs: []string{"shoes"},
	}
	rule, err := rec.Parse()
	require.NoError(t, err)
	assert.Equal(t, ScopeCategory, rule.AppliesTo.Scope)
	assert.Contains(t, rule.AppliesTo.CategoryIDs, "shoes")

	_, err = Record{Code: "c", Type: "percentage", Value: dp("10"), AppliesTo: "category"}.Parse()
	require.Error(t, err)

	_, err = Record{Code: "c", Type: "percentage", Value: dp("10"), AppliesTo: "galaxy"}.Parse()
	require.Error(t, err)
}

func TestNewCatalogRejectsDuplicateCodes(t *testing.T) {
	a := activeRule("SAME", Percentage{Value: d("10")})
	b := activeRule("SAME", FixedAmount{Value: d("5")})

	_, err := NewCatalog([]*Rule{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
