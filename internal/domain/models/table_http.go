package models

// Requests for the index HTTP endpoints. Defined in domain for consistency and reuse.

type TableRequest struct {
	From  string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `query:"limit" json:"limit" default:"0" validate:"gte=0,lte=20000"`
}

type LatestRequest struct {
	// N trailing rows to include alongside the newest record, for sparklines.
	N int `query:"n" json:"n" default:"1" validate:"gte=1,lte=500"`
}
