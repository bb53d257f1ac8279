package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with zero stock", func(t *testing.T) {
		product, err := NewProduct("Widget", "WID-001", "Hardware", valueobject.NewMoneyUSD(decimal.NewFromInt(15)))

		require.NoError(t, err)
		assert.Equal(t, "Widget", product.Name)
		assert.True(t, product.QuantityOnHand.IsZero())
		assert.True(t, product.UnitCost.IsZero())
		assert.False(t, product.HasStock())
		assert.Equal(t, 1, product.Version)
	})

	t.Run("rejects missing name or code", func(t *testing.T) {
		_, err := NewProduct("", "WID-001", "", valueobject.ZeroUSD())
		assert.Error(t, err)

		_, err = NewProduct("Widget", "", "", valueobject.ZeroUSD())
		assert.Error(t, err)
	})
}

func TestProductApplyValuation(t *testing.T) {
	t.Run("writes derived fields", func(t *testing.T) {
		product, err := NewProduct("Widget", "WID-001", "", valueobject.NewMoneyUSD(decimal.NewFromInt(15)))
		require.NoError(t, err)
		versionBefore := product.Version

		product.ApplyValuation(Valuation{
			Quantity: decimal.NewFromInt(150),
			UnitCost: decimal.NewFromInt(12),
		})

		assert.True(t, product.QuantityOnHand.Equal(decimal.NewFromInt(150)))
		assert.True(t, product.UnitCost.Equal(decimal.NewFromInt(12)))
		assert.True(t, product.TotalValue().Equal(decimal.NewFromInt(1800)))
		// The version belongs to the repository's optimistic guard; domain
		// mutations leave it at the loaded value
		assert.Equal(t, versionBefore, product.Version)
	})

	t.Run("emits revalued event only on change", func(t *testing.T) {
		product, err := NewProduct("Widget", "WID-001", "", valueobject.ZeroUSD())
		require.NoError(t, err)

		product.ApplyValuation(Valuation{Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(2)})
		require.Len(t, product.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductRevalued, product.GetDomainEvents()[0].EventType())

		product.ClearDomainEvents()
		product.ApplyValuation(Valuation{Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(2)})
		assert.Empty(t, product.GetDomainEvents())
	})
}

func TestProductSetSellingPrice(t *testing.T) {
	product, err := NewProduct("Widget", "WID-001", "", valueobject.ZeroUSD())
	require.NoError(t, err)

	require.NoError(t, product.SetSellingPrice(valueobject.NewMoneyUSD(decimal.NewFromFloat(19.99))))
	assert.True(t, product.SellingPrice.Equal(decimal.NewFromFloat(19.99)))
}

func TestProductRename(t *testing.T) {
	product, err := NewProduct("Widget", "WID-001", "Hardware", valueobject.ZeroUSD())
	require.NoError(t, err)

	require.NoError(t, product.Rename("Widget v2", "Tools"))
	assert.Equal(t, "Widget v2", product.Name)
	assert.Equal(t, "Tools", product.Category)

	assert.Error(t, product.Rename("", "Tools"))
}
