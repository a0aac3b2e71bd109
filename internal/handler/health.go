package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cantina/internal/apierror"
	"cantina/internal/infra"
	"cantina/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and, when configured, Redis connectivity and dead-letter depth;
// never exposes credentials or internals. rdb and mail may be nil.
func Health(db *gorm.DB, rdb *redis.Client, mail *infra.Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				body["dlq"] = worker.DLQDepths(ctx, rdb)
			}
		}
		body["redis"] = redisStatus

		if mail != nil {
			body["smtp_breaker"] = mail.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK

		c.JSON(status, body)
	}
}

// DeadLetters lists the newest dead-lettered jobs of one queue.
// GET /v1/admin/dead-letters?queue=jobs:alerts&limit=20
func DeadLetters(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		queue := c.DefaultQuery("queue", worker.QueueAlerts)
		if queue != worker.QueueAlerts && queue != worker.QueueInvoices {
			c.JSON(http.StatusBadRequest, apierror.New("Fila desconhecida"))
			return
		}
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
		if err != nil || limit <= 0 || limit > 200 {
			c.JSON(http.StatusBadRequest, apierror.New("limit deve estar entre 1 e 200"))
			return
		}
		entries, err := worker.PeekDLQ(c.Request.Context(), rdb, queue, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		if entries == nil {
			entries = []worker.DLQEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}
