package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RecentRows bounds the execution table in the Markdown report.
const RecentRows = 25

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Execution Report: %s\n\n", r.Mint))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Settlements | %d |\n", s.Total))
	sb.WriteString(fmt.Sprintf("| Succeeded | %d |\n", s.Succeeded))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", s.Failed))
	sb.WriteString(fmt.Sprintf("| Success Rate | %.4f |\n", s.SuccessRate()))
	sb.WriteString(fmt.Sprintf("| Paper | %d |\n", s.Paper))
	sb.WriteString(fmt.Sprintf("| Buys / Sells | %d / %d |\n", s.Buys, s.Sells))
	sb.WriteString(fmt.Sprintf("| SOL Spent | %.6f |\n", s.SolSpent))
	sb.WriteString(fmt.Sprintf("| SOL Received | %.6f |\n", s.SolReceived))
	sb.WriteString(fmt.Sprintf("| Net SOL | %.6f |\n", s.NetSol()))
	sb.WriteString(fmt.Sprintf("| Tokens Bought | %.2f |\n", s.TokensBought))
	sb.WriteString(fmt.Sprintf("| Tokens Sold | %.2f |\n", s.TokensSold))
	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf("| First | %s |\n", time.UnixMilli(s.FirstMs).UTC().Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("| Last | %s |\n", time.UnixMilli(s.LastMs).UTC().Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Rules
	sb.WriteString("## Rules\n\n")
	if len(r.Rules) > 0 {
		sb.WriteString("| Rule | Action | Count | Succeeded | Amount | Mean Confidence |\n")
		sb.WriteString("|------|--------|-------|-----------|--------|-----------------|\n")
		for _, row := range r.Rules {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.6f | %.1f |\n",
				row.Rule, row.Action, row.Count, row.Succeeded, row.Amount, row.MeanConfidence))
		}
	} else {
		sb.WriteString("No executions recorded.\n")
	}
	sb.WriteString("\n")

	// Recent executions
	sb.WriteString("## Recent Executions\n\n")
	if len(r.Executions) > 0 {
		sb.WriteString("| Time | Action | Rule | Amount | Expected Out | Price | Status | Signature |\n")
		sb.WriteString("|------|--------|------|--------|--------------|-------|--------|-----------|\n")
		rows := r.Executions
		if len(rows) > RecentRows {
			rows = rows[:RecentRows]
		}
		for _, e := range rows {
			status := "OK"
			if !e.Success {
				status = "FAIL: " + e.Error
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.6f | %.6f | %.10f | %s | %s |\n",
				e.ExecutedAt.Format(time.RFC3339), e.Action, e.Rule,
				e.Amount, e.ExpectedOut, e.Price, status, e.Signature))
		}
		if len(r.Executions) > RecentRows {
			sb.WriteString(fmt.Sprintf("\n%d older executions omitted.\n", len(r.Executions)-RecentRows))
		}
	} else {
		sb.WriteString("No executions recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
