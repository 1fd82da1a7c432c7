package monitor

import (
	"crypto/subtle"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterStatusRoute mounts /monitor/status with uptime, runtime and database health.
func RegisterStatusRoute(router *gin.Engine, db *gorm.DB, startedAt time.Time) {
	router.GET("/monitor/status", func(c *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		database := gin.H{"status": "ok"}
		status := http.StatusOK
		if err := pingDB(c, db); err != nil {
			database = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"uptime_seconds": int(time.Since(startedAt).Seconds()),
			"started_at":     startedAt.Format(time.RFC3339),
			"goroutines":     runtime.NumGoroutine(),
			"heap_alloc_mb":  float64(mem.HeapAlloc) / 1024 / 1024,
			"database":       database,
		})
	})
}

func pingDB(c *gin.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request.Context())
}

// RegisterLogsRoute serves the backend log file to holders of token. An empty
// token disables the route.
func RegisterLogsRoute(router *gin.Engine, token, logPath string) {
	router.GET("/monitor/logs", func(c *gin.Context) {
		provided := c.Query("token")
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		logData, err := os.ReadFile(logPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", logData)
	})
}
