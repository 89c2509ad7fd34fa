package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes transactions to w as CSV with a header row, in the order
// given. Intended for exporting a user's history for offline analysis.
func WriteCSV(w io.Writer, txns []Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "symbol", "name", "kind", "quantity", "price", "created_at"}); err != nil {
		return err
	}

	for _, txn := range txns {
		if err := cw.Write([]string{
			txn.ID,
			txn.Symbol,
			txn.Name,
			string(txn.Kind),
			strconv.FormatInt(txn.Quantity, 10),
			txn.Price.String(),
			txn.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
