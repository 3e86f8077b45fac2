package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the result as CSV with a header row, in the same
// column order as MarshalTable.
func (r Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"origin", "subject"}, columns()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("aggregate: write csv: %w", err)
	}

	record := make([]string, len(header))
	for i := range r.Groups {
		g := &r.Groups[i]
		record[0] = g.Origin
		record[1] = g.Subject
		for j, val := range g.values() {
			record[2+j] = fmt.Sprintf("%d", val)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("aggregate: write csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("aggregate: write csv: %w", err)
	}
	return nil
}
