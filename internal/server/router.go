package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/heraerp/platform/internal/handlers"
)

type RouterConfig struct {
	ServiceName         string
	AllowOrigins        []string
	Resources           []string
	ResourceHandler     *handlers.ResourceHandler
	SchemaHandler       *handlers.SchemaHandler
	MappingHandler      *handlers.MappingHandler
	PostingHandler      *handlers.PostingHandler
	RelationshipHandler *handlers.RelationshipHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Actor"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// System schema and tenant configuration
		v1.GET("/schema/:kind", cfg.SchemaHandler.GetSystemSchema)
		v1.GET("/smart-codes/resolve", cfg.SchemaHandler.ResolveSmartCode)
		v1.GET("/organizations/:org_id/config", cfg.SchemaHandler.GetOrgConfig)
		v1.PUT("/organizations/:org_id/config", cfg.SchemaHandler.UpsertOrgConfig)
		v1.GET("/organizations/:org_id/effective-config", cfg.SchemaHandler.EffectiveConfig)

		// Mapping
		v1.POST("/mapping/analyze", cfg.MappingHandler.Analyze)

		// Relationships
		v1.POST("/relationships", cfg.RelationshipHandler.Create)
		v1.GET("/relationships", cfg.RelationshipHandler.List)

		// Posting
		v1.POST("/posting/apply", cfg.PostingHandler.Apply)
		v1.POST("/posting/transactions", cfg.PostingHandler.Record)
		v1.GET("/posting/transactions", cfg.PostingHandler.ListTransactions)
		v1.GET("/posting/rules", cfg.PostingHandler.Rules)

		// Generated CRUD over every registered config-type resource
		v1.GET("/resources", cfg.ResourceHandler.ListResources)
		for _, resource := range cfg.Resources {
			v1.GET("/"+resource, cfg.ResourceHandler.List(resource))
			v1.POST("/"+resource, cfg.ResourceHandler.Create(resource))
			v1.PUT("/"+resource, cfg.ResourceHandler.Update(resource))
			v1.DELETE("/"+resource, cfg.ResourceHandler.Delete(resource))
			v1.POST("/"+resource+"/bulk-import", cfg.ResourceHandler.BulkImport(resource))
		}
	}

	return router
}
