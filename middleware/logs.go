package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"FuelDesk/Models"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Persist log rows to the api_logs table
	Database bool
	// Skip logging for specific paths
	SkipPaths []string
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:   true,
		Database:  true,
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// RequestLogger logs each request to the console and into the api_logs
// table. A failed log insert never fails the request.
func RequestLogger(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		err := c.Next()
		latency := time.Since(start)

		var userID *uint
		var username string
		if user := c.Locals("user"); user != nil {
			if userStruct, ok := user.(Models.User); ok {
				id := userStruct.ID
				userID = &id
				username = userStruct.Name
			}
		}

		entry := Models.ApiLog{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			LatencyMs: latency.Milliseconds(),
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
			UserID:    userID,
			Username:  username,
		}
		if err != nil {
			entry.Error = err.Error()
		}

		if cfg.Console {
			userIDStr := ""
			if userID != nil {
				userIDStr = fmt.Sprintf(" user:%d(%s)", *userID, username)
			}
			log.Printf(
				"[%s] %s %s %d %s %s%s",
				start.Format("2006-01-02 15:04:05"),
				entry.Method,
				entry.Path,
				entry.Status,
				latency,
				entry.IP,
				userIDStr,
			)
		}

		if cfg.Database && Models.DB != nil {
			if dbErr := Models.DB.Create(&entry).Error; dbErr != nil {
				log.Printf("Error writing api log: %v", dbErr)
			}
		}

		return err
	}
}
