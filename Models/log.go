package Models

import (
	"time"

	"gorm.io/gorm"
)

// ApiLog is one request record written by the logging middleware.
type ApiLog struct {
	gorm.Model
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Method    string    `json:"method" gorm:"type:varchar(10);index"`
	Path      string    `json:"path" gorm:"index"`
	Status    int       `json:"status" gorm:"index"`
	LatencyMs int64     `json:"latency_ms"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	UserID    *uint     `json:"user_id"`
	Username  string    `json:"username"`
	Error     string    `json:"error,omitempty"`
}
