package catalogsync

import "fmt"

// DefaultErrorSampleSize bounds how many failure messages an outcome carries
const DefaultErrorSampleSize = 5

// SyncOutcome is what the user sees after an apply
type SyncOutcome struct {
	UpdatedCount  int      `json:"updated_count"`
	NotFoundCount int      `json:"not_found_count"`
	UpToDateCount int      `json:"up_to_date_count"`
	ErrorCount    int      `json:"error_count"`
	ErrorSamples  []string `json:"error_samples"`
}

// NoopOutcome is the outcome of a preview with nothing to update
func NoopOutcome(p *SyncPreview) SyncOutcome {
	return SyncOutcome{
		NotFoundCount: len(p.NotFound),
		UpToDateCount: len(p.UpToDate),
		ErrorSamples:  []string{},
	}
}

// Settlement is the reconciled result of one batch update
type Settlement struct {
	Outcome SyncOutcome
	// Details are the preview's audit drafts with failed SKUs moved to status error
	Details []AuditDetailDraft
	Totals  SyncTotals
}

// Settle folds a batch result into the preview's audit drafts. Updated drafts
// whose remote id failed are corrected to DetailStatusError so the audit
// trail never reports a failed SKU as updated.
func Settle(p *SyncPreview, result *BatchUpdateResult, sampleSize int) Settlement {
	if sampleSize <= 0 {
		sampleSize = DefaultErrorSampleSize
	}

	skuByRemoteID := make(map[string]string, len(p.UpdatePayload))
	for _, cmd := range p.UpdatePayload {
		skuByRemoteID[cmd.RemoteID] = cmd.SKU
	}

	failed := make(map[string]string, len(result.Failures))
	samples := make([]string, 0, min(sampleSize, len(result.Failures)))
	for _, f := range result.Failures {
		failed[f.RemoteID] = f.Message
		if len(samples) < sampleSize {
			sku, ok := skuByRemoteID[f.RemoteID]
			if !ok {
				sku = f.RemoteID
			}
			samples = append(samples, fmt.Sprintf("%s: %s", sku, f.Message))
		}
	}

	details := make([]AuditDetailDraft, len(p.AuditDetails))
	copy(details, p.AuditDetails)

	// updated drafts and UpdatePayload share the ToUpdate order
	cmdIdx := 0
	for i := range details {
		if details[i].Status != DetailStatusUpdated {
			continue
		}
		if cmdIdx < len(p.UpdatePayload) {
			if msg, ok := failed[p.UpdatePayload[cmdIdx].RemoteID]; ok {
				details[i].Status = DetailStatusError
				details[i].ErrorMessage = msg
			}
		}
		cmdIdx++
	}

	outcome := SyncOutcome{
		UpdatedCount:  len(result.SucceededIDs),
		NotFoundCount: len(p.NotFound),
		UpToDateCount: len(p.UpToDate),
		ErrorCount:    len(result.Failures),
		ErrorSamples:  samples,
	}

	return Settlement{
		Outcome: outcome,
		Details: details,
		Totals:  TotalsFromOutcome(outcome, len(details)),
	}
}
