package model

// StatisticsSnapshot holds the derived dashboard counts. Nothing here is
// persisted; every snapshot is recomputed from the full submission set at
// query time.
type StatisticsSnapshot struct {
	Total       int `json:"total"`
	Unread      int `json:"unread"`
	Replied     int `json:"replied"`
	Last24Hours int `json:"last_24_hours"`
	Last7Days   int `json:"last_7_days"`
}
