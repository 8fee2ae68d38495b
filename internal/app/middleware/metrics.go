package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/metrics"
)

// Metrics records request counts and durations labelled by route template.
func Metrics() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		if gCtx.Request.URL.Path == "/metrics" {
			gCtx.Next()
			return
		}

		start := time.Now()
		metrics.IncInFlight()
		defer metrics.DecInFlight()

		gCtx.Next()

		path := gCtx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(gCtx.Request.Method, path, strconv.Itoa(gCtx.Writer.Status()), time.Since(start).Seconds())
	}
}
