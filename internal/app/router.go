package app

import (
	"github.com/gin-gonic/gin"

	"github.com/heraerp/platform/internal/server"
)

func wireRouter(cfg Config, serviceset Services, handlerset Handlers) *gin.Engine {
	resources := make([]string, 0)
	for _, res := range serviceset.Factory.Resources() {
		resources = append(resources, res.Resource)
	}
	return server.NewRouter(server.RouterConfig{
		ServiceName:         cfg.ServiceName,
		AllowOrigins:        cfg.AllowOrigins,
		Resources:           resources,
		ResourceHandler:     handlerset.Resource,
		SchemaHandler:       handlerset.Schema,
		MappingHandler:      handlerset.Mapping,
		PostingHandler:      handlerset.Posting,
		RelationshipHandler: handlerset.Relationship,
	})
}
