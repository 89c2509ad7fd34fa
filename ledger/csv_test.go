package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	txns := []Transaction{
		{
			ID: "T1", UserID: "U1", Symbol: "AAPL", Name: "Apple Inc",
			Price: mustDec(t, "100.50"), Quantity: 10, Kind: Buy,
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "T2", UserID: "U1", Symbol: "AAPL", Name: "Apple Inc",
			Price: mustDec(t, "101"), Quantity: -4, Kind: Sell,
			CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txns))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "symbol", "name", "kind", "quantity", "price", "created_at"}, records[0])
	assert.Equal(t, []string{"T1", "AAPL", "Apple Inc", "BUY", "10", "100.5", "2026-03-01T10:00:00Z"}, records[1])
	assert.Equal(t, "-4", records[2][4])
	assert.Equal(t, "SELL", records[2][3])
}
