package constants

// ExtractionStatus is the canonical status for rows in the extractions table.
type ExtractionStatus string

// Stable values (store these exact strings in DB).
const (
	StatusRunning   ExtractionStatus = "RUNNING"   // accepted, text extraction or provider call in flight
	StatusSucceeded ExtractionStatus = "SUCCEEDED" // fields decoded and stored
	StatusFailed    ExtractionStatus = "FAILED"    // terminal failure, see error_kind
)

func (s ExtractionStatus) Valid() bool {
	switch s {
	case StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}
