package models

// Requests for the HTTP surface. Defined in domain for consistency and reuse.

type SeriesRequest struct {
	Window float64 `query:"window" json:"window" default:"30" validate:"gt=0"`
}

type StatsRequest struct {
	Signal string  `query:"signal" json:"signal" validate:"required"`
	Window float64 `query:"window" json:"window" default:"60" validate:"gt=0"`
}

type ToggleRequest struct {
	Included *bool `json:"included" validate:"required"`
}

type HistoryRequest struct {
	Signal string `query:"signal" json:"signal" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
	TF     string `query:"tf" json:"tf" default:"raw" validate:"oneof=raw 1s 1m"`
}

type ExportRequest struct {
	Path   string  `json:"path" validate:"required"`
	Window float64 `json:"window" default:"0" validate:"gte=0"`
}
