package models

// SignalInfo is a registry snapshot of one discovered signal.
type SignalInfo struct {
	Name     string  `json:"name"`
	Index    int     `json:"index"`
	Included bool    `json:"included"`
	Count    int     `json:"count"`
	Last     float64 `json:"last"`
}

// ArchiveRow is one per-signal sample as persisted to the long-term
// archive (one decoded line fans out to one row per signal).
type ArchiveRow struct {
	Signal    string  `json:"signal"`
	Timestamp float64 `json:"timestamp"`
	Value     float64 `json:"value"`
}
