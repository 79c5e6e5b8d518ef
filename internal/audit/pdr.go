// Package audit provides PDR (Process Decision Record) writing for duebell.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/duebell/internal/models"
)

// Sink persists decision records.
type Sink interface {
	WritePDR(action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error)
}

// Outcomes recorded for task mutations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
)

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	sink Sink
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Sink) *PDRWriter {
	return &PDRWriter{sink: s}
}

// Record writes a PDR entry for a state-mutating action. A nil writer
// records nothing.
func (w *PDRWriter) Record(action string, inputs interface{}, outcome, taskID, details string) (*models.PDREntry, error) {
	if w == nil || w.sink == nil {
		return nil, nil
	}
	return w.sink.WritePDR(action, hashInputs(inputs), outcome, taskID, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
