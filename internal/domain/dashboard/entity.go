package dashboard

import "context"

// Stats is the dashboard headline block, derived live from the SQL side
type Stats struct {
	Projects     int `json:"projects"`
	Diagrams     int `json:"diagrams"`
	Findings     int `json:"findings"`
	UploadsToday int `json:"uploads_today"`
	BySeverity   struct {
		Critical int `json:"critical"`
		High     int `json:"high"`
		Medium   int `json:"medium"`
		Low      int `json:"low"`
	} `json:"by_severity"`
}

// Repository port
type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
}
