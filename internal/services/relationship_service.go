package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/platform/smartcode"
	"github.com/heraerp/platform/internal/repos"
	"github.com/heraerp/platform/internal/types"
)

// LinkInput materializes one detected or hand-declared relationship as a
// core_relationships edge.
type LinkInput struct {
	OrganizationID   uuid.UUID `json:"organization_id"`
	FromEntityID     uuid.UUID `json:"from_entity_id"`
	ToEntityID       uuid.UUID `json:"to_entity_id"`
	RelationshipType string    `json:"relationship_type"`
	SmartCode        string    `json:"smart_code,omitempty"`
}

// RelationshipQuery narrows a listing. From and To are exclusive of each
// other; with neither set, Type alone selects.
type RelationshipQuery struct {
	OrganizationID   uuid.UUID
	FromEntityID     uuid.UUID
	ToEntityID       uuid.UUID
	RelationshipType string
}

type RelationshipService interface {
	Link(ctx context.Context, input LinkInput) (*types.Relationship, error)
	List(ctx context.Context, query RelationshipQuery) ([]*types.Relationship, error)
}

type relationshipService struct {
	log      *logger.Logger
	entities repos.EntityRepo
	rels     repos.RelationshipRepo
}

func NewRelationshipService(baseLog *logger.Logger, entities repos.EntityRepo, rels repos.RelationshipRepo) RelationshipService {
	return &relationshipService{
		log:      baseLog.With("service", "RelationshipService"),
		entities: entities,
		rels:     rels,
	}
}

// Link validates both endpoints before writing: they must exist and belong
// to the calling organization. Edges never cross a tenant boundary.
func (s *relationshipService) Link(ctx context.Context, input LinkInput) (*types.Relationship, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	if input.FromEntityID == uuid.Nil || input.ToEntityID == uuid.Nil {
		return nil, apierr.Validation("from_entity_id and to_entity_id are required")
	}
	if input.RelationshipType == "" {
		return nil, apierr.Validation("relationship_type is required")
	}
	if input.SmartCode != "" {
		if err := smartcode.Validate(input.SmartCode); err != nil {
			return nil, apierr.Validation("relationship: %v", err)
		}
	}

	for _, entityID := range []uuid.UUID{input.FromEntityID, input.ToEntityID} {
		entity, err := s.entities.GetByID(ctx, nil, entityID)
		if err != nil {
			return nil, fmt.Errorf("load entity %s: %w", entityID, err)
		}
		if entity == nil {
			return nil, apierr.NotFound("entity %s not found", entityID)
		}
		if entity.OrganizationID != input.OrganizationID {
			return nil, apierr.Validation("entity %s belongs to another organization", entityID)
		}
	}

	rel, err := s.rels.Create(ctx, nil, &types.Relationship{
		ID:               uuid.New(),
		OrganizationID:   input.OrganizationID,
		FromEntityID:     input.FromEntityID,
		ToEntityID:       input.ToEntityID,
		RelationshipType: input.RelationshipType,
		SmartCode:        input.SmartCode,
	})
	if err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	s.log.Info("relationship linked",
		"relationship_id", rel.ID,
		"relationship_type", rel.RelationshipType,
	)
	return rel, nil
}

func (s *relationshipService) List(ctx context.Context, query RelationshipQuery) ([]*types.Relationship, error) {
	if query.OrganizationID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	switch {
	case query.FromEntityID != uuid.Nil:
		return s.rels.ListFrom(ctx, nil, query.OrganizationID, query.FromEntityID)
	case query.ToEntityID != uuid.Nil:
		return s.rels.ListTo(ctx, nil, query.OrganizationID, query.ToEntityID)
	case query.RelationshipType != "":
		return s.rels.ListByType(ctx, nil, query.OrganizationID, query.RelationshipType)
	default:
		return nil, apierr.Validation("one of from, to or type is required")
	}
}
