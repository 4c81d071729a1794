package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pinger is any dependency that can report its reachability (object storage).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health checks DB, Redis and storage connectivity. It never exposes
// credentials or internals. Storage is optional: a nil Pinger reports
// "disabled" and does not degrade the status.
func Health(db *gorm.DB, rdb *redis.Client, storage Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		storageStatus := "disabled"
		if storage != nil {
			storageStatus = "connected"
			if storage.Ping(ctx) != nil {
				storageStatus = "error"
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" || storageStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":      status == http.StatusOK,
			"db":      dbStatus,
			"redis":   redisStatus,
			"storage": storageStatus,
		})
	}
}
