package models

import (
	"time"
)

// FetchEntry records one data panel request against the backend
type FetchEntry struct {
	ID           int
	RequestID    string
	Kind         ResultKind
	Datasource   string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowCount     int
	Success      bool
	ErrorMessage string
}
