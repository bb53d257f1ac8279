package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

func seedProduct(t *testing.T, env *testEnv, name, code string, sellingPrice float64) *ledger.Product {
	t.Helper()
	product, err := ledger.NewProduct(name, code, "", valueobject.NewMoneyUSD(decimal.NewFromFloat(sellingPrice)))
	require.NoError(t, err)
	require.NoError(t, env.productRepo.Create(context.Background(), product))
	return product
}

func TestBatchServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates batch and revalues product", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		_, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		_, err = service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-002",
			Quantity:    decimal.NewFromInt(50),
			UnitCost:    decimal.NewFromInt(16),
		})
		require.NoError(t, err)

		stored, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.QuantityOnHand.Equal(decimal.NewFromInt(150)))
		assert.True(t, stored.UnitCost.Equal(decimal.NewFromInt(12)))
	})

	t.Run("writes an inbound movement record", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
			Reference:   "GRN-42",
		})
		require.NoError(t, err)

		entries, err := env.entryRepo.FindByReference(ctx, ledger.ReferenceTypeManual, "GRN-42")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.EntryDirectionInbound, entries[0].Direction)
		assert.Equal(t, created.ID, *entries[0].BatchID)
	})

	t.Run("rejects duplicate batch number per product", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		req := CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(1),
		}
		_, err := service.Create(ctx, req)
		require.NoError(t, err)

		_, err = service.Create(ctx, req)
		assert.Error(t, err)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		env := newTestEnv()
		service := NewBatchService(env.batchRepo, env.txScope)

		_, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   uuid.New(),
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(1),
		})
		assert.Error(t, err)
	})
}

func TestBatchServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity correction flows into the product aggregate", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		newQty := decimal.NewFromInt(80)
		_, err = service.Update(ctx, created.ID, UpdateBatchRequest{Quantity: &newQty})
		require.NoError(t, err)

		stored, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.QuantityOnHand.Equal(decimal.NewFromInt(80)))
	})

	t.Run("corrects dates and supplier", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
			Supplier:    "Acme Supplies",
		})
		require.NoError(t, err)

		expiry := time.Now().Add(30 * 24 * time.Hour)
		supplier := "Globex Trading"
		updated, err := service.Update(ctx, created.ID, UpdateBatchRequest{
			ExpiryDate: &expiry,
			Supplier:   &supplier,
		})
		require.NoError(t, err)

		require.NotNil(t, updated.ExpiryDate)
		assert.True(t, updated.ExpiryDate.Equal(expiry))
		assert.Equal(t, "Globex Trading", updated.Supplier)
	})

	t.Run("rejects expiry before manufacture", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		mfg := time.Now().Add(-24 * time.Hour)
		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:       product.ID,
			BatchNumber:     "LOT-001",
			Quantity:        decimal.NewFromInt(100),
			UnitCost:        decimal.NewFromInt(10),
			ManufactureDate: &mfg,
		})
		require.NoError(t, err)

		expiry := mfg.Add(-24 * time.Hour)
		_, err = service.Update(ctx, created.ID, UpdateBatchRequest{ExpiryDate: &expiry})
		assert.Error(t, err)
	})

	t.Run("cost correction moves the weighted average", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		newCost := decimal.NewFromInt(14)
		_, err = service.Update(ctx, created.ID, UpdateBatchRequest{UnitCost: &newCost})
		require.NoError(t, err)

		stored, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.UnitCost.Equal(decimal.NewFromInt(14)))
	})
}

func TestBatchServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects deleting a batch that holds stock", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(1),
		})
		require.NoError(t, err)

		assert.Error(t, service.Delete(ctx, created.ID))
	})

	t.Run("deletes an empty batch", func(t *testing.T) {
		env := newTestEnv()
		product := seedProduct(t, env, "Widget", "WID-001", 20)
		service := NewBatchService(env.batchRepo, env.txScope)

		created, err := service.Create(ctx, CreateBatchRequest{
			ProductID:   product.ID,
			BatchNumber: "LOT-001",
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(1),
		})
		require.NoError(t, err)
		require.NoError(t, env.batchRepo.DeductRemaining(ctx, created.ID, decimal.NewFromInt(10)))

		require.NoError(t, service.Delete(ctx, created.ID))

		_, err = env.batchRepo.FindByID(ctx, created.ID)
		assert.Error(t, err)
	})
}
