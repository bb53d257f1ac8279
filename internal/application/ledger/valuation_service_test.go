package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/ledger"
)

func TestValuationServiceRevalue(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs a drifted aggregate", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)

		batch, err := ledger.NewBatch(product.ID, "LOT-001", decimal.NewFromInt(100), decimal.NewFromInt(10), nil, nil, "")
		require.NoError(t, err)
		require.NoError(t, env.batchRepo.Save(ctx, batch))

		// The product still claims zero stock; the batch set disagrees
		service := NewValuationService(env.txScope)
		response, err := service.Revalue(ctx, product.ID)
		require.NoError(t, err)

		assert.True(t, response.QuantityOnHand.Equal(decimal.NewFromInt(100)))
		assert.True(t, response.UnitCost.Equal(decimal.NewFromInt(10)))
	})

	t.Run("revalue of an empty product zeroes the aggregate", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)

		service := NewValuationService(env.txScope)
		response, err := service.Revalue(ctx, product.ID)
		require.NoError(t, err)

		assert.True(t, response.QuantityOnHand.IsZero())
		assert.True(t, response.UnitCost.IsZero())
	})

	t.Run("repeated revalue is idempotent", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)

		batch, err := ledger.NewBatch(product.ID, "LOT-001", decimal.NewFromInt(30), decimal.NewFromFloat(9.99), nil, nil, "")
		require.NoError(t, err)
		require.NoError(t, env.batchRepo.Save(ctx, batch))

		service := NewValuationService(env.txScope)
		first, err := service.Revalue(ctx, product.ID)
		require.NoError(t, err)
		second, err := service.Revalue(ctx, product.ID)
		require.NoError(t, err)

		assert.True(t, first.QuantityOnHand.Equal(second.QuantityOnHand))
		assert.True(t, first.UnitCost.Equal(second.UnitCost))
	})

	t.Run("unknown product fails", func(t *testing.T) {
		env := newTestEnv()
		service := NewValuationService(env.txScope)

		_, err := service.Revalue(ctx, uuid.New())
		assert.Error(t, err)
	})
}
