package verification

import (
	"context"
	"fmt"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/idhash"
	"solana-curve-maker/internal/storage"
)

// AuditVerifier checks stored execution rows for consistency.
type AuditVerifier struct {
	executions storage.ExecutionStore
}

// NewAuditVerifier creates a verifier over the execution audit trail.
func NewAuditVerifier(executions storage.ExecutionStore) *AuditVerifier {
	return &AuditVerifier{executions: executions}
}

// VerifyMint checks every stored execution of mint.
func (v *AuditVerifier) VerifyMint(ctx context.Context, mint string) (*VerificationReport, error) {
	records, err := v.executions.GetByMint(ctx, mint, 0)
	if err != nil {
		return nil, fmt.Errorf("load executions for %s: %w", mint, err)
	}

	report := &VerificationReport{}
	for _, r := range records {
		report.add(r.ExecutionID, CheckExecution(r))
	}
	return report, nil
}

// CheckExecution returns the divergences of one audit row: its ID must
// hash from its own fields, its slippage bound must not exceed the quote,
// and its outcome must carry a signature or an error.
func CheckExecution(r *domain.ExecutionRecord) []FieldDivergence {
	var divergences []FieldDivergence

	want := idhash.ComputeExecutionID(r.Mint, r.Action, r.Rule, r.Amount, r.ExecutedAtMs)
	if r.ExecutionID != want {
		divergences = append(divergences, FieldDivergence{Field: "ExecutionID", Expected: want, Actual: r.ExecutionID})
	}

	if r.Action != domain.ActionBuy && r.Action != domain.ActionSell {
		divergences = append(divergences, FieldDivergence{Field: "Action", Expected: "buy|sell", Actual: r.Action})
	}

	if r.MinOut > r.ExpectedOut && !floatEquals(r.MinOut, r.ExpectedOut) {
		divergences = append(divergences, FieldDivergence{Field: "MinOut", Expected: r.ExpectedOut, Actual: r.MinOut})
	}

	if r.Success && r.Signature == "" {
		divergences = append(divergences, FieldDivergence{Field: "Signature", Expected: "non-empty", Actual: ""})
	}
	if !r.Success && r.Error == "" {
		divergences = append(divergences, FieldDivergence{Field: "Error", Expected: "non-empty", Actual: ""})
	}

	return divergences
}
