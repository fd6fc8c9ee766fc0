package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/cache"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
)

type Services struct {
	Schema        services.SchemaManager
	Factory       services.ConfigFactory
	Mapping       services.MappingEngine
	Posting       services.PostingEngine
	Transactions  services.TransactionService
	Relationships services.RelationshipService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("wiring services")

	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(log, cfg.RedisAddr, cfg.SchemaCacheTTL)
		if err != nil {
			return Services{}, fmt.Errorf("init redis cache: %w", err)
		}
		store = redisStore
	} else {
		store = cache.NewMemoryStore(cfg.SchemaCacheTTL)
	}

	schema := services.NewSchemaManager(db, log, store,
		reposet.SystemDefinition, reposet.OrgConfig, reposet.FieldSelection, reposet.FormConfiguration)

	factory := services.NewConfigFactory(db, log, reposet.Entity, reposet.Attribute)
	if err := registerDefaultConfigTypes(factory); err != nil {
		return Services{}, fmt.Errorf("register config types: %w", err)
	}

	mapping := services.NewMappingEngine(log)

	posting := services.NewPostingEngine(log)
	if cfg.PostingRulesPath != "" {
		if err := posting.LoadDocumentFile(cfg.PostingRulesPath); err != nil {
			return Services{}, fmt.Errorf("load posting rules: %w", err)
		}
	}

	return Services{
		Schema:        schema,
		Factory:       factory,
		Mapping:       mapping,
		Posting:       posting,
		Transactions:  services.NewTransactionService(db, log, posting, reposet.Transaction),
		Relationships: services.NewRelationshipService(log, reposet.Entity, reposet.Relationship),
	}, nil
}

// registerDefaultConfigTypes seeds the resources every deployment ships with;
// tenant-specific types register on top at startup.
func registerDefaultConfigTypes(factory services.ConfigFactory) error {
	defaults := []services.ConfigType{
		{
			Resource:          "service-categories",
			EntityType:        "service_category",
			SmartCodePrefix:   "HERA.SALON.SVC.CAT",
			DisplayName:       "Service Category",
			RelatedEntityType: "service",
			RelatedFieldName:  "category",
			DefaultFields: []services.FieldSpec{
				{Name: "description", Type: "text", Label: "Description"},
				{Name: "display_order", Type: "number", Label: "Display Order"},
			},
		},
		{
			Resource:          "product-categories",
			EntityType:        "product_category",
			SmartCodePrefix:   "HERA.SALON.PROD.CAT",
			DisplayName:       "Product Category",
			RelatedEntityType: "product",
			RelatedFieldName:  "category",
		},
		{
			Resource:        "payment-methods",
			EntityType:      "payment_method",
			SmartCodePrefix: "HERA.FIN.PAY.METHOD",
			DisplayName:     "Payment Method",
			DefaultFields: []services.FieldSpec{
				{Name: "account_code", Type: "text", Label: "Ledger Account"},
				{Name: "active", Type: "boolean", Label: "Active"},
			},
		},
	}
	for _, cfg := range defaults {
		if err := factory.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}
