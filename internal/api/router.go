package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/api/handler"
	"github.com/timmy/ghostline/internal/api/middleware"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/source"
)

// Deps are the collaborators behind the HTTP API. Queue and Producer may be nil.
type Deps struct {
	Ping            func(ctx context.Context) error
	Items           handler.ItemReader
	Counter         handler.StatusCounter
	Operator        handler.ItemOperator
	Gate            handler.Evaluator
	Recommendations handler.Recommendations
	Queue           handler.QueueState
	Producer        handler.Producer
	Sources         map[string]source.Source
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(cfg config.ServerConfig, deps Deps) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler(deps.Ping)
	itemHandler := handler.NewItemHandler(deps.Items, deps.Operator)
	statsHandler := handler.NewStatsHandler(deps.Counter, deps.Queue)
	admissionHandler := handler.NewAdmissionHandler(deps.Gate)
	recHandler := handler.NewRecommendationHandler(deps.Recommendations)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.TokenAuth(cfg.APIToken))
	{
		v1.GET("/items", itemHandler.ListItems)
		v1.GET("/items/:id", itemHandler.GetItem)
		v1.POST("/items/:id/approve", itemHandler.ApproveItem)
		v1.POST("/items/:id/reset", itemHandler.ResetItem)
		v1.POST("/items/:id/release", itemHandler.ReleaseItem)
		v1.POST("/items/:id/archive", itemHandler.ArchiveItem)

		v1.GET("/stats", statsHandler.GetStats)

		v1.POST("/admission/evaluate", admissionHandler.Evaluate)

		v1.GET("/recommendations", recHandler.List)
		v1.POST("/recommendations", recHandler.Create)
		v1.GET("/recommendations/:id", recHandler.Get)
		v1.POST("/recommendations/:id/approve", recHandler.Approve)
		v1.POST("/recommendations/:id/reject", recHandler.Reject)
		v1.POST("/recommendations/:id/execute", recHandler.Execute)
		v1.POST("/recommendations/:id/retry", recHandler.Retry)

		if deps.Producer != nil {
			producerHandler := handler.NewProducerHandler(deps.Producer, deps.Sources)
			v1.POST("/producer/run", producerHandler.Run)
			v1.GET("/producer/status", producerHandler.Status)
		}
	}

	return r
}
