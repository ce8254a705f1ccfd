package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTxns() []models.Transaction {
	return []models.Transaction{
		{Date: "01-04-2025", Description: "Balance Forward", Mode: "B/F", Type: models.TypeBalance, Balance: decimal.RequireFromString("9841.12")},
		{Date: "02-04-2025", Description: "UPI/ABC STORES/abc@ybl/ Payment", Mode: "UPI", Type: models.TypeDebit, Amount: decimal.RequireFromString("341.12"), Balance: decimal.RequireFromString("9500.00"), Receiver: "ABC STORES"},
		{Date: "05-04-2025", Description: "Fund Transfer to Jane", Mode: "NET BANKING", Type: models.TypeDebit, Amount: decimal.RequireFromString("1000.00"), Balance: decimal.RequireFromString("8500.00")},
	}
}

func TestSave_Deduplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	meta := ImportMeta{Bank: "ICICI", AccountNo: "XXXXXXXX6193"}

	first, err := db.Save(ctx, sampleTxns(), meta)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, 3, first.Inserted)
	assert.Zero(t, first.Skipped)
	assert.NotEmpty(t, first.ImportID)

	// Re-importing the same statement plus one new movement.
	again := append(sampleTxns(), models.Transaction{
		Date: "06-04-2025", Description: "Salary", Mode: "NET BANKING", Type: models.TypeCredit,
		Amount: decimal.RequireFromString("25000.00"), Balance: decimal.RequireFromString("33500.00"),
	})
	second, err := db.Save(ctx, again, meta)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 3, second.Skipped)
	assert.NotEqual(t, first.ImportID, second.ImportID)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestSave_KeepsRepeatsWithinStatement(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	meta := ImportMeta{Bank: "ICICI"}

	transfer := func(balance string) models.Transaction {
		return models.Transaction{
			Date: "05-05-2025", Description: "Fund Transfer to Jane", Mode: "NET BANKING", Type: models.TypeDebit,
			Amount: decimal.RequireFromString("1000.00"), Balance: decimal.RequireFromString(balance),
		}
	}
	txns := []models.Transaction{transfer("8000.00"), transfer("7000.00")}

	first, err := db.Save(ctx, txns, meta)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Zero(t, first.Skipped)

	second, err := db.Save(ctx, txns, meta)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 2, second.Skipped)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	res, err := db.Query(ctx, "SELECT balance FROM transactions ORDER BY id")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.InDelta(t, 8000.0, toFloat(t, res.Rows[0][0]), 0.001)
	assert.InDelta(t, 7000.0, toFloat(t, res.Rows[1][0]), 0.001)
}

func TestOccurrenceKeys(t *testing.T) {
	a := models.Transaction{Date: "05-05-2025", Description: "x", Amount: decimal.RequireFromString("10")}
	b := models.Transaction{Date: "06-05-2025", Description: "x", Amount: decimal.RequireFromString("10")}

	keys, err := occurrenceKeys([]models.Transaction{a, b, a, a})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-05-05|10.00|x",
		"2025-05-06|10.00|x",
		"2025-05-05|10.00|x|2",
		"2025-05-05|10.00|x|3",
	}, keys)
}

func TestSave_StoresISODates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Save(ctx, sampleTxns(), ImportMeta{Bank: "ICICI"})
	require.NoError(t, err)

	res, err := db.Query(ctx, "SELECT date, receiver, bank FROM transactions WHERE type = 'DEBIT' ORDER BY date")
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "receiver", "bank"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []any{"2025-04-02", "ABC STORES", "ICICI"}, res.Rows[0])
}

func TestSave_InvalidDateRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	txns := append(sampleTxns(), models.Transaction{Date: "31-02-2025", Description: "bad"})
	_, err := db.Save(ctx, txns, ImportMeta{})
	require.Error(t, err)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSave_Empty(t *testing.T) {
	db := openTestDB(t)
	res, err := db.Save(context.Background(), nil, ImportMeta{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Zero(t, res.Inserted)
}

func TestQuery_Aggregates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Save(ctx, sampleTxns(), ImportMeta{Bank: "ICICI"})
	require.NoError(t, err)

	res, err := db.Query(ctx, "SELECT mode, SUM(amount) AS total FROM transactions WHERE type = 'DEBIT' GROUP BY mode ORDER BY mode;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "NET BANKING", res.Rows[0][0])
	assert.InDelta(t, 1000.0, toFloat(t, res.Rows[0][1]), 0.001)
	assert.InDelta(t, 341.12, toFloat(t, res.Rows[1][1]), 0.001)
}

func TestQuery_NoRows(t *testing.T) {
	db := openTestDB(t)
	res, err := db.Query(context.Background(), "WITH d AS (SELECT * FROM transactions) SELECT * FROM d")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.NotEmpty(t, res.Columns)
}

func TestQuery_RejectsWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Save(ctx, sampleTxns(), ImportMeta{})
	require.NoError(t, err)

	tests := []string{
		"DELETE FROM transactions",
		"DROP TABLE transactions",
		"SELECT 1; DELETE FROM transactions",
		"WITH x AS (SELECT 1) DELETE FROM transactions",
		"   ",
	}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			_, err := db.Query(ctx, q)
			assert.ErrorIs(t, err, ErrReadOnlyQuery)
		})
	}

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestQuery_SyntaxError(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Query(context.Background(), "SELECT FROM WHERE")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReadOnlyQuery)
}

func toFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		t.Fatalf("unexpected numeric type %T", v)
		return 0
	}
}
