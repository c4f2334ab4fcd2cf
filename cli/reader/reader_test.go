package reader

import (
	"testing"
	"time"

	"github.com/shirogane-dev/handseal/types"
)

func sampleRecords() []types.PendingSubmission {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return []types.PendingSubmission{
		{
			ID:          "rec-1",
			Fingerprint: "token:tok-1",
			CreatedAt:   now,
			UpdatedAt:   now,
			Attempts:    0,
			Result: types.RunResult{
				Mode:           types.ModeRank,
				Jutsu:          "summoning",
				SignsLanded:    5,
				ExpectedSigns:  5,
				ElapsedSeconds: 1.5,
				Proof: &types.Proof{
					RunToken: "tok-1",
					Events: []types.ProofEvent{
						{T: 0, Type: types.EventTypeRunStart},
						{T: 1.5, Type: types.EventTypeRunFinish},
					},
				},
			},
		},
		{
			ID:          "rec-2",
			Fingerprint: "token:tok-2",
			CreatedAt:   now.Add(time.Minute),
			UpdatedAt:   now.Add(5 * time.Minute),
			Attempts:    3,
			LastReason:  "network",
			Result: types.RunResult{
				Mode:           types.ModeRank,
				Jutsu:          "chidori",
				SignsLanded:    4,
				ExpectedSigns:  4,
				ElapsedSeconds: 0.9,
			},
		},
	}
}

func TestSummarizeRecords(t *testing.T) {
	summaries := SummarizeRecords(sampleRecords())

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != "rec-1" || summaries[1].ID != "rec-2" {
		t.Errorf("queue order not preserved: %+v", summaries)
	}
	if summaries[1].LastReason != "network" {
		t.Errorf("LastReason = %q, want network", summaries[1].LastReason)
	}
	if summaries[0].Mode != "rank" || summaries[0].Jutsu != "summoning" {
		t.Errorf("result fields not shaped: %+v", summaries[0])
	}
}

func TestSummarizeRecordsEmpty(t *testing.T) {
	summaries := SummarizeRecords(nil)
	if len(summaries) != 0 {
		t.Errorf("got %d summaries for empty queue", len(summaries))
	}
}

func TestInspectRecordByID(t *testing.T) {
	resp, err := InspectRecord(sampleRecords(), "rec-1")
	if err != nil {
		t.Fatalf("InspectRecord: %v", err)
	}

	if resp.ProofEvents != 2 {
		t.Errorf("ProofEvents = %d, want 2", resp.ProofEvents)
	}
	if !resp.HasToken {
		t.Error("HasToken should be true for tokened proof")
	}
	if resp.ScoreTime != 1.5 {
		t.Errorf("ScoreTime = %v, want 1.5", resp.ScoreTime)
	}
}

func TestInspectRecordByFingerprint(t *testing.T) {
	resp, err := InspectRecord(sampleRecords(), "token:tok-2")
	if err != nil {
		t.Fatalf("InspectRecord: %v", err)
	}

	if resp.ID != "rec-2" {
		t.Errorf("ID = %q, want rec-2", resp.ID)
	}
	if resp.ProofEvents != 0 || resp.HasToken {
		t.Errorf("proofless record should report no events or token: %+v", resp)
	}
}

func TestInspectRecordNotFound(t *testing.T) {
	if _, err := InspectRecord(sampleRecords(), "rec-99"); err == nil {
		t.Fatal("expected error for unknown record")
	}
}

func TestStatsOutbox(t *testing.T) {
	stats := StatsOutbox(sampleRecords())

	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Fresh != 1 || stats.Retrying != 1 {
		t.Errorf("Fresh/Retrying = %d/%d, want 1/1", stats.Fresh, stats.Retrying)
	}
	if stats.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", stats.Attempts)
	}
}

func TestStatsOutboxEmpty(t *testing.T) {
	stats := StatsOutbox(nil)
	if stats.Pending != 0 || stats.Fresh != 0 || stats.Retrying != 0 {
		t.Errorf("empty queue stats should be zero: %+v", stats)
	}
}
