package reader

import (
	"fmt"

	"github.com/shirogane-dev/handseal/types"
)

// SummarizeRecords shapes outbox records into list rows, preserving
// queue order (oldest first).
func SummarizeRecords(records []types.PendingSubmission) []RecordSummary {
	summaries := make([]RecordSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, RecordSummary{
			ID:          rec.ID,
			Fingerprint: rec.Fingerprint,
			Jutsu:       rec.Result.Jutsu,
			Mode:        string(rec.Result.Mode),
			Attempts:    rec.Attempts,
			LastReason:  rec.LastReason,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return summaries
}

// InspectRecord finds one record by ID or fingerprint and returns its
// detail view.
func InspectRecord(records []types.PendingSubmission, key string) (*InspectRecordResponse, error) {
	for _, rec := range records {
		if rec.ID != key && rec.Fingerprint != key {
			continue
		}
		resp := &InspectRecordResponse{
			ID:            rec.ID,
			Fingerprint:   rec.Fingerprint,
			Jutsu:         rec.Result.Jutsu,
			Mode:          string(rec.Result.Mode),
			ScoreTime:     rec.Result.ElapsedSeconds,
			SignsLanded:   rec.Result.SignsLanded,
			ExpectedSigns: rec.Result.ExpectedSigns,
			Attempts:      rec.Attempts,
			LastReason:    rec.LastReason,
			CreatedAt:     rec.CreatedAt,
			UpdatedAt:     rec.UpdatedAt,
		}
		if rec.Result.Proof != nil {
			resp.ProofEvents = len(rec.Result.Proof.Events)
			resp.HasToken = rec.Result.Proof.RunToken != ""
		}
		return resp, nil
	}
	return nil, fmt.Errorf("no outbox record matches %q", key)
}

// StatsOutbox aggregates the pending queue into counts.
func StatsOutbox(records []types.PendingSubmission) *OutboxStats {
	stats := &OutboxStats{Pending: len(records)}
	for _, rec := range records {
		stats.Attempts += rec.Attempts
		if rec.Attempts == 0 {
			stats.Fresh++
		} else {
			stats.Retrying++
		}
	}
	return stats
}
