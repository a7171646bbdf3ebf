package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/cache"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Redis    RedisHealth    `json:"redis"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type RedisHealth struct {
	Status string `json:"status"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

// CheckBasic reports overall health. Redis being down degrades drafts
// and catalog caching but does not make the service unhealthy.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()
	redisHealth := checkRedis()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redisHealth,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func checkRedis() RedisHealth {
	client := cache.GetClient()
	if client == nil {
		return RedisHealth{Status: "unavailable"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return RedisHealth{Status: "unhealthy"}
	}
	return RedisHealth{Status: "healthy"}
}
