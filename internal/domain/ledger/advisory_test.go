package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

func TestEvaluatePrice(t *testing.T) {
	markup := decimal.NewFromFloat(1.2)

	newPricedProduct := func(price float64) *Product {
		product, err := NewProduct("Widget", "WID-001", "", valueobject.NewMoneyUSD(decimal.NewFromFloat(price)))
		require.NoError(t, err)
		return product
	}

	t.Run("cost above selling price raises warning and suggestion", func(t *testing.T) {
		product := newPricedProduct(10)

		warning, suggestion := EvaluatePrice(product, decimal.NewFromInt(12), markup)

		require.NotNil(t, warning)
		require.NotNil(t, suggestion)
		assert.True(t, warning.NewCost.Equal(decimal.NewFromInt(12)))
		assert.True(t, warning.SellingPrice.Equal(decimal.NewFromInt(10)))
		// 12 * 1.2 = 14.40
		assert.True(t, suggestion.SuggestedPrice.Equal(decimal.NewFromFloat(14.4)))
	})

	t.Run("cost equal to selling price is fine", func(t *testing.T) {
		product := newPricedProduct(10)

		warning, suggestion := EvaluatePrice(product, decimal.NewFromInt(10), markup)

		assert.Nil(t, warning)
		assert.Nil(t, suggestion)
	})

	t.Run("cost below selling price is fine", func(t *testing.T) {
		product := newPricedProduct(10)

		warning, suggestion := EvaluatePrice(product, decimal.NewFromInt(8), markup)

		assert.Nil(t, warning)
		assert.Nil(t, suggestion)
	})

	t.Run("unpriced product never warns", func(t *testing.T) {
		product := newPricedProduct(0)

		warning, suggestion := EvaluatePrice(product, decimal.NewFromInt(100), markup)

		assert.Nil(t, warning)
		assert.Nil(t, suggestion)
	})

	t.Run("suggested price is rounded to cents", func(t *testing.T) {
		product := newPricedProduct(1)

		_, suggestion := EvaluatePrice(product, decimal.NewFromFloat(1.11), markup)

		require.NotNil(t, suggestion)
		// 1.11 * 1.2 = 1.332 -> 1.33
		assert.True(t, suggestion.SuggestedPrice.Equal(decimal.NewFromFloat(1.33)))
	})
}
