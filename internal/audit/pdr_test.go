package audit

import (
	"testing"

	"github.com/fentz26/duebell/internal/models"
)

type recordingSink struct {
	entries []models.PDREntry
}

func (r *recordingSink) WritePDR(action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error) {
	e := models.PDREntry{Action: action, InputsHash: inputsHash, Outcome: outcome, TaskID: taskID, Details: details}
	r.entries = append(r.entries, e)
	return &e, nil
}

func TestRecord(t *testing.T) {
	sink := &recordingSink{}
	w := NewPDRWriter(sink)

	if _, err := w.Record("task.create", map[string]string{"description": "Pay rent"}, OutcomeSuccess, "t1", ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	w.Record("task.create", map[string]string{"description": "Pay rent"}, OutcomeSuccess, "t2", "")
	w.Record("task.create", map[string]string{"description": "Call mom"}, OutcomeRejected, "", "past due")

	if len(sink.entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(sink.entries))
	}
	if sink.entries[0].InputsHash != sink.entries[1].InputsHash {
		t.Error("Expected identical inputs to hash identically")
	}
	if sink.entries[0].InputsHash == sink.entries[2].InputsHash {
		t.Error("Expected different inputs to hash differently")
	}
	if len(sink.entries[0].InputsHash) != 64 {
		t.Errorf("Expected hex sha256, got %q", sink.entries[0].InputsHash)
	}
}

func TestRecord_NilWriter(t *testing.T) {
	var w *PDRWriter
	entry, err := w.Record("task.create", nil, OutcomeSuccess, "", "")
	if err != nil || entry != nil {
		t.Errorf("Expected no-op, got %v, %v", entry, err)
	}
}

func TestHashInputs_Unmarshalable(t *testing.T) {
	if got := hashInputs(make(chan int)); got != "hash_error" {
		t.Errorf("Expected hash_error, got %q", got)
	}
}
