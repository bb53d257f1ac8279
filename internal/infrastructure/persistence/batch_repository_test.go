package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/shared"
)

// newMockBatchRepository creates a GormBatchRepository with a mocked SQL connection
func newMockBatchRepository(t *testing.T) (*GormBatchRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBatchRepository(gormDB), mock, mockDB
}

func TestGormBatchRepository_DeductRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("applies conditional decrement when stock covers it", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()
		mock.ExpectExec(`UPDATE "batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeductRemaining(ctx, batchID, decimal.NewFromInt(30))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns concurrent modification when the guard misses", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()
		// Zero rows affected: another transaction consumed the stock first
		mock.ExpectExec(`UPDATE "batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeductRemaining(ctx, batchID, decimal.NewFromInt(30))
		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	})
}

func TestGormBatchRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("maps missing row to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBatchRepository_FindPickable(t *testing.T) {
	ctx := context.Background()

	t.Run("FEFO orders by expiry with undated batches last", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE .*ORDER BY COALESCE\(expiry_date, '9999-12-31'\) ASC, created_at ASC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "batch_number"}))

		_, err := repo.FindPickable(ctx, productID, "FEFO")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LIFO orders by creation time descending", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE .*ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "batch_number"}))

		_, err := repo.FindPickable(ctx, productID, "LIFO")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
