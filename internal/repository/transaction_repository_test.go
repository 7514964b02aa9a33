package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	t.Run("create sale", func(t *testing.T) {
		sale, err := repo.Create(ctx, &model.Transaction{
			Kind:        model.TransactionKindSale,
			Document:    "00000001",
			ClientID:    1,
			SellerID:    1,
			Date:        time.Now().UTC(),
			Value:       dec("500"),
			Outstanding: dec("500"),
			OrderID:     ptr(int64(1)),
		})
		require.NoError(t, err)
		assert.NotZero(t, sale.ID)
		assert.Equal(t, model.TransactionKindSale, sale.Kind)
		assertDecimal(t, "500", sale.Outstanding)
	})

	t.Run("duplicate document of same kind", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Transaction{
			Kind:     model.TransactionKindSale,
			Document: "00000001",
			Date:     time.Now().UTC(),
			Value:    dec("1"),
		})
		assert.ErrorIs(t, err, ErrDuplicateTransaction)
	})

	t.Run("same document under another kind", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Transaction{
			Kind:     model.TransactionKindPayment,
			Document: "00000001",
			Date:     time.Now().UTC(),
			Value:    dec("1"),
		})
		assert.NoError(t, err)
	})

	t.Run("second sale for the same order", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Transaction{
			Kind:     model.TransactionKindSale,
			Document: "00000099",
			Date:     time.Now().UTC(),
			Value:    dec("1"),
			OrderID:  ptr(int64(1)),
		})
		assert.ErrorIs(t, err, ErrDuplicateTransaction)
	})

	t.Run("several payments without document", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := repo.Create(ctx, &model.Transaction{
				Kind:  model.TransactionKindPayment,
				Date:  time.Now().UTC(),
				Value: dec("1"),
			})
			require.NoError(t, err)
		}
	})
}

func TestTransactionRepository_NextDocumentNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		doc, err := repo.NextDocumentNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, "00000001", doc)
	})

	t.Run("strictly increasing across inserts", func(t *testing.T) {
		prev := ""
		for i := 0; i < 5; i++ {
			doc, err := repo.NextDocumentNumber(ctx)
			require.NoError(t, err)
			assert.Len(t, doc, model.DocumentWidth)
			assert.Greater(t, doc, prev)
			prev = doc

			_, err = repo.Create(ctx, &model.Transaction{
				Kind:     model.TransactionKindPayment,
				Document: doc,
				Date:     time.Now().UTC(),
				Value:    dec("10"),
			})
			require.NoError(t, err)
		}
		assert.Equal(t, "00000005", prev)
	})

	t.Run("does not reserve", func(t *testing.T) {
		a, err := repo.NextDocumentNumber(ctx)
		require.NoError(t, err)
		b, err := repo.NextDocumentNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("skips past backfilled documents", func(t *testing.T) {
		blank, err := repo.Create(ctx, &model.Transaction{
			Kind:  model.TransactionKindPayment,
			Date:  time.Now().UTC(),
			Value: dec("10"),
		})
		require.NoError(t, err)

		doc, err := repo.NextDocumentNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.FormatDocument(blank.ID+1), doc)

		assigned, err := repo.AssignDocumentIfMissing(ctx, blank.ID, doc)
		require.NoError(t, err)
		require.True(t, assigned)

		next, err := repo.NextDocumentNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.FormatDocument(blank.ID+2), next)

		_, err = repo.Create(ctx, &model.Transaction{
			Kind:     model.TransactionKindPayment,
			Document: next,
			Date:     time.Now().UTC(),
			Value:    dec("10"),
		})
		assert.NoError(t, err)
	})
}

func TestTransactionRepository_DecrementOutstanding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	sale := db.seedSale(t, 1, 1, "00000001", "500")

	t.Run("partial decrement", func(t *testing.T) {
		require.NoError(t, repo.DecrementOutstanding(ctx, sale.ID, dec("200")))
		got, err := repo.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assertDecimal(t, "300", got.Outstanding)
	})

	t.Run("over decrement leaves balance untouched", func(t *testing.T) {
		err := repo.DecrementOutstanding(ctx, sale.ID, dec("300.01"))
		assert.ErrorIs(t, err, ErrInsufficientOutstanding)
		got, err := repo.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assertDecimal(t, "300", got.Outstanding)
	})

	t.Run("exact decrement settles", func(t *testing.T) {
		require.NoError(t, repo.DecrementOutstanding(ctx, sale.ID, dec("300")))
		got, err := repo.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assertDecimal(t, "0", got.Outstanding)
	})

	t.Run("unknown sale", func(t *testing.T) {
		err := repo.DecrementOutstanding(ctx, 999, dec("1"))
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("payment rows are never decremented", func(t *testing.T) {
		payment, err := repo.Create(ctx, &model.Transaction{
			Kind:        model.TransactionKindPayment,
			Document:    "00000077",
			Date:        time.Now().UTC(),
			Value:       dec("10"),
			Outstanding: dec("10"),
		})
		require.NoError(t, err)
		err = repo.DecrementOutstanding(ctx, payment.ID, dec("1"))
		assert.ErrorIs(t, err, ErrInsufficientOutstanding)
	})
}

func TestTransactionRepository_AttachReferenceAndDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	payment, err := repo.Create(ctx, &model.Transaction{
		Kind:  model.TransactionKindPayment,
		Date:  time.Now().UTC(),
		Value: dec("10"),
	})
	require.NoError(t, err)

	t.Run("attach reference once", func(t *testing.T) {
		require.NoError(t, repo.AttachReference(ctx, payment.ID, 42))
		got, err := repo.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReferenceID)
		assert.Equal(t, int64(42), *got.ReferenceID)

		assert.ErrorIs(t, repo.AttachReference(ctx, payment.ID, 43), ErrTransactionNotFound)
	})

	t.Run("assign missing document", func(t *testing.T) {
		changed, err := repo.AssignDocumentIfMissing(ctx, payment.ID, "00000010")
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.AssignDocumentIfMissing(ctx, payment.ID, "00000011")
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := repo.GetByDocument(ctx, model.TransactionKindPayment, "00000010")
		require.NoError(t, err)
		assert.Equal(t, payment.ID, got.ID)
	})
}

func TestTransactionRepository_ListPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	open1 := db.seedSale(t, 1, 10, "00000001", "100")
	open2 := db.seedSale(t, 2, 20, "00000002", "50")
	settled := db.seedSale(t, 1, 10, "00000003", "70")
	require.NoError(t, repo.DecrementOutstanding(ctx, settled.ID, dec("70")))

	_, err := repo.Create(ctx, &model.Transaction{
		Kind:        model.TransactionKindPayment,
		Document:    "00000004",
		ClientID:    1,
		SellerID:    10,
		Date:        time.Now().UTC(),
		Value:       dec("5"),
		Outstanding: dec("5"),
	})
	require.NoError(t, err)

	ids := func(txns []*model.Transaction) []int64 {
		out := make([]int64, len(txns))
		for i, tx := range txns {
			out[i] = tx.ID
		}
		return out
	}

	t.Run("unfiltered returns open sales only", func(t *testing.T) {
		got, err := repo.ListPending(ctx, PendingFilter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{open1.ID, open2.ID}, ids(got))
	})

	t.Run("by sellers", func(t *testing.T) {
		got, err := repo.ListPending(ctx, PendingFilter{SellerIDs: []int64{20}})
		require.NoError(t, err)
		assert.Equal(t, []int64{open2.ID}, ids(got))
	})

	t.Run("empty seller set", func(t *testing.T) {
		got, err := repo.ListPending(ctx, PendingFilter{SellerIDs: []int64{}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("by client", func(t *testing.T) {
		got, err := repo.ListPending(ctx, PendingFilter{ClientID: ptr(int64(1))})
		require.NoError(t, err)
		assert.Equal(t, []int64{open1.ID}, ids(got))
	})
}
