package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders executions as CSV string.
func RenderCSV(rows []ExecutionRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("execution_id,executed_at,action,rule,confidence,")
	sb.WriteString("amount,expected_out,min_out,price,")
	sb.WriteString("success,paper,signature,error\n")

	// Rows
	for _, e := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.1f,%.9f,%.9f,%.9f,%.12f,%t,%t,%s,%s\n",
			e.ExecutionID,
			e.ExecutedAt.Format(time.RFC3339),
			e.Action,
			e.Rule,
			e.Confidence,
			e.Amount,
			e.ExpectedOut,
			e.MinOut,
			e.Price,
			e.Success,
			e.Paper,
			e.Signature,
			csvField(e.Error),
		))
	}

	return sb.String()
}

// csvField quotes free text that may carry separators.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
