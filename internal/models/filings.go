package models

import "time"

// FilingDocument is one regulatory filing with its extracted plain text.
type FilingDocument struct {
	Type            string    `json:"type"` // "8-K", "10-K", "10-Q"
	FiledDate       time.Time `json:"filed_date"`
	AccessionNumber string    `json:"accession_number"`
	PrimaryDocument string    `json:"primary_document"`
	Text            string    `json:"text"`
}

// FilingWindow is the lookback interval for filing retrieval, computed at
// job submission time.
type FilingWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls inside the window (inclusive).
func (w FilingWindow) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}
