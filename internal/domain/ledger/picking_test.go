package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchAt builds a batch with a controlled creation time so policy ordering
// is deterministic in tests.
func batchAt(t *testing.T, productID uuid.UUID, number string, qty, cost float64, createdAt time.Time, expiry *time.Time) Batch {
	t.Helper()
	batch := mustBatch(t, productID, number, qty, cost, expiry)
	batch.CreatedAt = createdAt
	return batch
}

func TestComputePickPlanFIFO(t *testing.T) {
	productID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	batches := []Batch{
		batchAt(t, productID, "LOT-OLD", 100, 10, base, nil),
		batchAt(t, productID, "LOT-NEW", 100, 20, base.Add(24*time.Hour), nil),
	}

	t.Run("consumes oldest batch first", func(t *testing.T) {
		plan, err := ComputePickPlan(productID, decimal.NewFromInt(120), PickPolicyFIFO, batches, nil)

		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.Equal(t, "LOT-OLD", plan.Lines[0].BatchNumber)
		assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "LOT-NEW", plan.Lines[1].BatchNumber)
		assert.True(t, plan.Lines[1].Quantity.Equal(decimal.NewFromInt(20)))
		// 100*10 + 20*20 = 1400
		assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(1400)))
		assert.True(t, plan.Fulfilled())
	})

	t.Run("marks fully consumed batches exhausted in the plan", func(t *testing.T) {
		plan, err := ComputePickPlan(productID, decimal.NewFromInt(120), PickPolicyFIFO, batches, nil)

		require.NoError(t, err)
		require.Len(t, plan.ExhaustedBatches, 1)
		assert.Equal(t, batches[0].ID, plan.ExhaustedBatches[0])
	})

	t.Run("does not mutate input batches", func(t *testing.T) {
		_, err := ComputePickPlan(productID, decimal.NewFromInt(120), PickPolicyFIFO, batches, nil)

		require.NoError(t, err)
		assert.True(t, batches[0].RemainingQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, batches[1].RemainingQuantity.Equal(decimal.NewFromInt(100)))
	})
}

func TestComputePickPlanLIFO(t *testing.T) {
	productID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	batches := []Batch{
		batchAt(t, productID, "LOT-OLD", 100, 10, base, nil),
		batchAt(t, productID, "LOT-NEW", 100, 20, base.Add(24*time.Hour), nil),
	}

	plan, err := ComputePickPlan(productID, decimal.NewFromInt(120), PickPolicyLIFO, batches, nil)

	require.NoError(t, err)
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, "LOT-NEW", plan.Lines[0].BatchNumber)
	// Same quantity as FIFO but opposite cost attribution: 100*20 + 20*10 = 2200
	assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(2200)))
}

func TestComputePickPlanFEFO(t *testing.T) {
	productID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	expSoon := time.Now().Add(24 * time.Hour)
	expLater := time.Now().Add(240 * time.Hour)

	t.Run("earliest expiry first, undated batches last", func(t *testing.T) {
		batches := []Batch{
			batchAt(t, productID, "LOT-NODATE", 10, 1, base, nil),
			batchAt(t, productID, "LOT-LATER", 10, 1, base.Add(time.Hour), &expLater),
			batchAt(t, productID, "LOT-SOON", 10, 1, base.Add(2*time.Hour), &expSoon),
		}

		plan, err := ComputePickPlan(productID, decimal.NewFromInt(30), PickPolicyFEFO, batches, nil)

		require.NoError(t, err)
		require.Len(t, plan.Lines, 3)
		assert.Equal(t, "LOT-SOON", plan.Lines[0].BatchNumber)
		assert.Equal(t, "LOT-LATER", plan.Lines[1].BatchNumber)
		assert.Equal(t, "LOT-NODATE", plan.Lines[2].BatchNumber)
	})

	t.Run("equal expiry falls back to creation order", func(t *testing.T) {
		batches := []Batch{
			batchAt(t, productID, "LOT-B", 10, 1, base.Add(time.Hour), &expSoon),
			batchAt(t, productID, "LOT-A", 10, 1, base, &expSoon),
		}

		plan, err := ComputePickPlan(productID, decimal.NewFromInt(15), PickPolicyFEFO, batches, nil)

		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.Equal(t, "LOT-A", plan.Lines[0].BatchNumber)
	})

	t.Run("expired batches are skipped", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		batches := []Batch{
			batchAt(t, productID, "LOT-EXPIRED", 100, 1, base, &expired),
			batchAt(t, productID, "LOT-LIVE", 10, 1, base, &expSoon),
		}

		_, err := ComputePickPlan(productID, decimal.NewFromInt(20), PickPolicyFEFO, batches, nil)

		var insufficientErr *InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(10)))
	})
}

func TestComputePickPlanSpecified(t *testing.T) {
	productID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	first := batchAt(t, productID, "LOT-001", 50, 10, base, nil)
	second := batchAt(t, productID, "LOT-002", 50, 20, base.Add(time.Hour), nil)
	batches := []Batch{first, second}

	t.Run("consumes selected batches in request order", func(t *testing.T) {
		specified := []SpecifiedPick{
			{BatchID: second.ID},
			{BatchID: first.ID},
		}

		plan, err := ComputePickPlan(productID, decimal.NewFromInt(60), PickPolicySpecified, batches, specified)

		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.Equal(t, "LOT-002", plan.Lines[0].BatchNumber)
		assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromInt(50)))
		assert.True(t, plan.Lines[1].Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("selection quantity caps the take without faking exhaustion", func(t *testing.T) {
		specified := []SpecifiedPick{
			{BatchID: first.ID, Quantity: decimal.NewFromInt(20)},
			{BatchID: second.ID},
		}

		plan, err := ComputePickPlan(productID, decimal.NewFromInt(30), PickPolicySpecified, batches, specified)

		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromInt(20)))
		// LOT-001 still has 30 remaining, it must not appear exhausted
		assert.Empty(t, plan.ExhaustedBatches)
	})

	t.Run("requires selections", func(t *testing.T) {
		_, err := ComputePickPlan(productID, decimal.NewFromInt(10), PickPolicySpecified, batches, nil)
		assert.Error(t, err)
	})

	t.Run("unknown selections are ignored and cause shortfall", func(t *testing.T) {
		specified := []SpecifiedPick{{BatchID: uuid.New()}}

		_, err := ComputePickPlan(productID, decimal.NewFromInt(10), PickPolicySpecified, batches, specified)

		var insufficientErr *InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.True(t, insufficientErr.Available.IsZero())
	})
}

func TestComputePickPlanShortfall(t *testing.T) {
	productID := uuid.New()
	batches := []Batch{
		mustBatch(t, productID, "LOT-001", 30, 10, nil),
	}

	_, err := ComputePickPlan(productID, decimal.NewFromInt(50), PickPolicyFIFO, batches, nil)

	var insufficientErr *InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.True(t, insufficientErr.Requested.Equal(decimal.NewFromInt(50)))
	assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, insufficientErr.PartialPlan)
	assert.True(t, insufficientErr.PartialPlan.TotalQuantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, insufficientErr.PartialPlan.Shortfall().Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "INSUFFICIENT_STOCK", insufficientErr.DomainError().Code)
}

func TestComputePickPlanValidation(t *testing.T) {
	productID := uuid.New()
	batches := []Batch{mustBatch(t, productID, "LOT-001", 10, 1, nil)}

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := ComputePickPlan(productID, decimal.Zero, PickPolicyFIFO, batches, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown policy", func(t *testing.T) {
		_, err := ComputePickPlan(productID, decimal.NewFromInt(1), PickPolicy("RANDOM"), batches, nil)
		assert.Error(t, err)
	})
}

func TestApplyPickPlan(t *testing.T) {
	productID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	first := batchAt(t, productID, "LOT-001", 40, 10, base, nil)
	second := batchAt(t, productID, "LOT-002", 40, 12, base.Add(time.Hour), nil)

	plan, err := ComputePickPlan(productID, decimal.NewFromInt(50), PickPolicyFIFO, []Batch{first, second}, nil)
	require.NoError(t, err)

	err = ApplyPickPlan([]*Batch{&first, &second}, plan)

	require.NoError(t, err)
	assert.True(t, first.RemainingQuantity.IsZero())
	assert.True(t, first.Exhausted)
	assert.True(t, second.RemainingQuantity.Equal(decimal.NewFromInt(30)))
	assert.False(t, second.Exhausted)
}

func TestApplyPickPlanMissingBatch(t *testing.T) {
	productID := uuid.New()
	batch := mustBatch(t, productID, "LOT-001", 40, 10, nil)

	plan, err := ComputePickPlan(productID, decimal.NewFromInt(10), PickPolicyFIFO, []Batch{batch}, nil)
	require.NoError(t, err)

	err = ApplyPickPlan([]*Batch{}, plan)
	assert.Error(t, err)
}

func TestAvailableQuantity(t *testing.T) {
	productID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	consumed := mustBatch(t, productID, "LOT-GONE", 10, 1, nil)
	require.NoError(t, (&consumed).Deduct(decimal.NewFromInt(10)))

	batches := []Batch{
		mustBatch(t, productID, "LOT-001", 25, 1, nil),
		mustBatch(t, productID, "LOT-EXP", 10, 1, &expired),
		consumed,
	}

	assert.True(t, AvailableQuantity(batches).Equal(decimal.NewFromInt(25)))
}
