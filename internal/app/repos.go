package app

import (
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/repos"
)

type Repos struct {
	Entity            repos.EntityRepo
	Attribute         repos.AttributeRepo
	Relationship      repos.RelationshipRepo
	Transaction       repos.TransactionRepo
	SystemDefinition  repos.SystemDefinitionRepo
	OrgConfig         repos.OrgConfigRepo
	FieldSelection    repos.FieldSelectionRepo
	FormConfiguration repos.FormConfigurationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("wiring repos")
	return Repos{
		Entity:            repos.NewEntityRepo(db, log),
		Attribute:         repos.NewAttributeRepo(db, log),
		Relationship:      repos.NewRelationshipRepo(db, log),
		Transaction:       repos.NewTransactionRepo(db, log),
		SystemDefinition:  repos.NewSystemDefinitionRepo(db, log),
		OrgConfig:         repos.NewOrgConfigRepo(db, log),
		FieldSelection:    repos.NewFieldSelectionRepo(db, log),
		FormConfiguration: repos.NewFormConfigurationRepo(db, log),
	}
}
