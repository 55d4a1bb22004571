package models

// Requests for the session HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	Threshold float64 `query:"threshold" json:"threshold" default:"1.0" validate:"gt=0,lte=100"`
}

type RecordsRequest struct {
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
}
