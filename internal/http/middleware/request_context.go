package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contentforge/pipeline/internal/platform/ctxutil"
)

// AttachRequestContext stamps every request with a trace/request ID pair,
// propagated through context.Context for activities and logging to pick up.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		requestID := uuid.NewString()

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: requestID}
		ctx := ctxutil.WithTraceData(c.Request.Context(), td)
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)
		c.Header("X-Trace-Id", traceID)
		c.Next()
	}
}
