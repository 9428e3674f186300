package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/contentforge/pipeline/internal/http/handlers"
	httpMW "github.com/contentforge/pipeline/internal/http/middleware"
	"github.com/contentforge/pipeline/internal/platform/logger"
)

type RouterConfig struct {
	WorkflowHandler *httpH.WorkflowHandler
	HealthHandler   *httpH.HealthHandler
	Log             *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	v1 := r.Group("/v1")
	{
		if cfg.WorkflowHandler != nil {
			v1.POST("/workflows/article", cfg.WorkflowHandler.StartArticle)
			v1.POST("/workflows/company", cfg.WorkflowHandler.StartCompanyProfile)
			v1.POST("/workflows/country-guide", cfg.WorkflowHandler.StartCountryGuide)
		}
	}

	return r
}
