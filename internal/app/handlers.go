package app

import (
	"github.com/heraerp/platform/internal/handlers"
	"github.com/heraerp/platform/internal/platform/logger"
)

type Handlers struct {
	Resource     *handlers.ResourceHandler
	Schema       *handlers.SchemaHandler
	Mapping      *handlers.MappingHandler
	Posting      *handlers.PostingHandler
	Relationship *handlers.RelationshipHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("wiring handlers")
	return Handlers{
		Resource:     handlers.NewResourceHandler(log, serviceset.Factory),
		Schema:       handlers.NewSchemaHandler(log, serviceset.Schema),
		Mapping:      handlers.NewMappingHandler(log, serviceset.Mapping),
		Posting:      handlers.NewPostingHandler(log, serviceset.Posting, serviceset.Transactions),
		Relationship: handlers.NewRelationshipHandler(log, serviceset.Relationships),
	}
}
