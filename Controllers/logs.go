package Controllers

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// LogHandler contains handler methods for request log routes
type LogHandler struct {
	DB *gorm.DB
}

// NewLogHandler creates a new log handler
func NewLogHandler(db *gorm.DB) *LogHandler {
	return &LogHandler{DB: db}
}

// parseLogDateRange resolves the date_from/date_to query parameters,
// defaulting to today when neither is given.
func parseLogDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	dateFromStr := c.Query("date_from", "")
	dateToStr := c.Query("date_to", "")

	if dateFromStr == "" && dateToStr == "" {
		now := time.Now()
		dateFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dateTo := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
		return dateFrom, dateTo, nil
	}

	dateFrom := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if dateFromStr != "" {
		parsed, err := time.Parse("2006-01-02", dateFromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		dateFrom = parsed
	}
	dateTo := time.Now()
	if dateToStr != "" {
		parsed, err := time.Parse("2006-01-02", dateToStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		dateTo = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
	}
	return dateFrom, dateTo, nil
}

// GetLogs retrieves request logs with pagination and filters
// GET /api/logs
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	dateFrom, dateTo, err := parseLogDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	query := h.DB.Model(&Models.ApiLog{}).Where("timestamp BETWEEN ? AND ?", dateFrom, dateTo)
	if pathFilter := c.Query("path"); pathFilter != "" {
		query = query.Where("path LIKE ?", "%"+pathFilter+"%")
	}
	if methodFilter := c.Query("method"); methodFilter != "" {
		query = query.Where("method = ?", strings.ToUpper(methodFilter))
	}
	if statusFilter := c.Query("status"); statusFilter != "" {
		if status, err := strconv.Atoi(statusFilter); err == nil {
			query = query.Where("status = ?", status)
		}
	}

	var totalLogs int64
	if err := query.Count(&totalLogs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count logs"})
	}

	var logs []Models.ApiLog
	err = query.Order("timestamp DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&logs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve logs"})
	}

	totalPages := (int(totalLogs) + pageSize - 1) / pageSize
	return c.JSON(fiber.Map{
		"logs":        logs,
		"total_logs":  totalLogs,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"date_from":   dateFrom,
		"date_to":     dateTo,
	})
}

// GetLogStats returns aggregate statistics over the request logs
// GET /api/logs/stats
func (h *LogHandler) GetLogStats(c *fiber.Ctx) error {
	dateFrom, dateTo, err := parseLogDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	var logs []Models.ApiLog
	err = h.DB.Where("timestamp BETWEEN ? AND ?", dateFrom, dateTo).Find(&logs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve logs"})
	}

	var totalRequests, successfulRequests, errorRequests int
	var totalLatency, minLatency, maxLatency int64
	methodStats := make(map[string]int)
	statusStats := make(map[int]int)
	pathStats := make(map[string]int)

	for i, entry := range logs {
		totalRequests++
		if entry.Status >= 200 && entry.Status < 300 {
			successfulRequests++
		} else if entry.Status >= 400 {
			errorRequests++
		}

		totalLatency += entry.LatencyMs
		if i == 0 || entry.LatencyMs < minLatency {
			minLatency = entry.LatencyMs
		}
		if entry.LatencyMs > maxLatency {
			maxLatency = entry.LatencyMs
		}

		methodStats[entry.Method]++
		statusStats[entry.Status]++
		pathStats[entry.Path]++
	}

	avgLatency := 0.0
	successRate := 0.0
	if totalRequests > 0 {
		avgLatency = float64(totalLatency) / float64(totalRequests)
		successRate = float64(successfulRequests) / float64(totalRequests) * 100
	}

	var topPaths []fiber.Map
	for path, count := range pathStats {
		topPaths = append(topPaths, fiber.Map{
			"path":  path,
			"count": count,
		})
	}
	sort.Slice(topPaths, func(i, j int) bool {
		return topPaths[i]["count"].(int) > topPaths[j]["count"].(int)
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	return c.JSON(fiber.Map{
		"total_requests":      totalRequests,
		"successful_requests": successfulRequests,
		"error_requests":      errorRequests,
		"success_rate":        successRate,
		"avg_latency_ms":      avgLatency,
		"min_latency_ms":      minLatency,
		"max_latency_ms":      maxLatency,
		"method_stats":        methodStats,
		"status_stats":        statusStats,
		"top_paths":           topPaths,
		"date_from":           dateFrom,
		"date_to":             dateTo,
	})
}
