package models

import "time"

// Company is a tracked company, resolved against the SEC EDGAR ticker index.
// Once a job is admitted the resolved ticker/CIK pair is copied onto the job
// and is immutable for that job's lifetime.
type Company struct {
	Ticker  string    `json:"ticker" badgerhold:"key"` // upper-case, e.g. "VRTX"
	CIK     string    `json:"cik"`                     // zero-padded to 10 digits
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}
