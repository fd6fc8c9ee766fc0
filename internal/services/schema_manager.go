package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/cache"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/platform/smartcode"
	"github.com/heraerp/platform/internal/repos"
	"github.com/heraerp/platform/internal/types"
)

// OrgConfigPatch carries the keys a caller wants to change. Nil fields keep
// the prior value; non-nil fields replace it wholesale (shallow replace per
// provided key, no deep merging).
type OrgConfigPatch struct {
	EnabledEntityTypes *[]string               `json:"enabled_entity_types,omitempty"`
	EnabledFieldTypes  *[]string               `json:"enabled_field_types,omitempty"`
	FeatureFlags       *map[string]bool        `json:"feature_flags,omitempty"`
	Overrides          *map[string]interface{} `json:"overrides,omitempty"`
}

// EffectiveConfig is the result of layering one tenant's field selection onto
// the system entity-type definition.
type EffectiveConfig struct {
	EntityType    string                    `json:"entity_type"`
	SelectionType string                    `json:"selection_type"`
	Fields        map[string]types.FieldDef `json:"fields"`
	Form          *types.FormConfiguration  `json:"form,omitempty"`
}

type SchemaManager interface {
	GetSystemSchema(ctx context.Context, kind types.SchemaKind, codeFilter string) ([]types.SystemDefinition, error)
	GetOrgConfig(ctx context.Context, orgID uuid.UUID) (*types.OrgSystemConfig, error)
	UpsertOrgConfig(ctx context.Context, orgID uuid.UUID, patch OrgConfigPatch, actor string) (*types.OrgSystemConfig, error)
	EffectiveFieldConfig(ctx context.Context, orgID uuid.UUID, entityType, selectionType string) (*EffectiveConfig, error)
	ResolveSmartCode(ctx context.Context, code string) (*types.SystemDefinition, error)
}

type schemaManager struct {
	db      *gorm.DB
	log     *logger.Logger
	cache   cache.Store
	group   singleflight.Group
	sysDefs repos.SystemDefinitionRepo
	orgCfgs repos.OrgConfigRepo
	fields  repos.FieldSelectionRepo
	forms   repos.FormConfigurationRepo
}

func NewSchemaManager(
	db *gorm.DB,
	baseLog *logger.Logger,
	cacheStore cache.Store,
	sysDefs repos.SystemDefinitionRepo,
	orgCfgs repos.OrgConfigRepo,
	fields repos.FieldSelectionRepo,
	forms repos.FormConfigurationRepo,
) SchemaManager {
	return &schemaManager{
		db:      db,
		log:     baseLog.With("service", "SchemaManager"),
		cache:   cacheStore,
		sysDefs: sysDefs,
		orgCfgs: orgCfgs,
		fields:  fields,
		forms:   forms,
	}
}

// GetSystemSchema is a read-through cache over the system definitions,
// keyed by (kind, filter). Concurrent misses on the same key collapse into
// one store read.
func (s *schemaManager) GetSystemSchema(ctx context.Context, kind types.SchemaKind, codeFilter string) ([]types.SystemDefinition, error) {
	if !kind.Valid() {
		return nil, apierr.NotFound("unknown schema kind %q", kind)
	}
	key := schemaCacheKey(kind, codeFilter)

	var cached []types.SystemDefinition
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		defs, err := s.sysDefs.ListByKind(ctx, nil, kind, codeFilter)
		if err != nil {
			return nil, fmt.Errorf("load system schema %s: %w", kind, err)
		}
		s.cache.Set(ctx, key, defs)
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.SystemDefinition), nil
}

func (s *schemaManager) GetOrgConfig(ctx context.Context, orgID uuid.UUID) (*types.OrgSystemConfig, error) {
	key := orgConfigCacheKey(orgID)
	var cached types.OrgSystemConfig
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	cfg, err := s.orgCfgs.GetByOrg(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("load org config: %w", err)
	}
	if cfg == nil {
		// Unconfigured is a normal state; never cached so a later upsert is
		// visible immediately.
		return nil, nil
	}
	s.cache.Set(ctx, key, cfg)
	return cfg, nil
}

func (s *schemaManager) UpsertOrgConfig(ctx context.Context, orgID uuid.UUID, patch OrgConfigPatch, actor string) (*types.OrgSystemConfig, error) {
	if orgID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	cfg, err := s.orgCfgs.GetByOrg(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("load org config: %w", err)
	}
	if cfg == nil {
		cfg = &types.OrgSystemConfig{ID: uuid.New(), OrganizationID: orgID}
	}

	if patch.EnabledEntityTypes != nil {
		cfg.EnabledEntityTypes = mustJSON(*patch.EnabledEntityTypes)
	}
	if patch.EnabledFieldTypes != nil {
		cfg.EnabledFieldTypes = mustJSON(*patch.EnabledFieldTypes)
	}
	if patch.FeatureFlags != nil {
		cfg.FeatureFlags = mustJSON(*patch.FeatureFlags)
	}
	if patch.Overrides != nil {
		cfg.Overrides = mustJSON(*patch.Overrides)
	}
	cfg.UpdatedBy = actor

	if err := s.orgCfgs.Save(ctx, nil, cfg); err != nil {
		return nil, fmt.Errorf("save org config: %w", err)
	}
	s.cache.Delete(ctx, orgConfigCacheKey(orgID))
	s.log.Info("org config upserted", "organization_id", orgID, "actor", actor)
	return cfg, nil
}

// EffectiveFieldConfig layers the tenant's field selection onto the system
// base fields. Application order is overlay, hide, required, readonly. A
// field that is both selected and hidden never appears in the output
// (hidden wins), and required/readonly flags only apply to surviving fields.
func (s *schemaManager) EffectiveFieldConfig(ctx context.Context, orgID uuid.UUID, entityType, selectionType string) (*EffectiveConfig, error) {
	defs, err := s.GetSystemSchema(ctx, types.SchemaKindEntityType, entityType)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, apierr.NotFound("no entity type definition for %q", entityType)
	}
	typeDef, err := defs[0].DecodeEntityType()
	if err != nil {
		return nil, fmt.Errorf("decode entity type definition %q: %w", entityType, err)
	}

	fields := make(map[string]types.FieldDef, len(typeDef.BaseFields))
	for name, def := range typeDef.BaseFields {
		fields[name] = def
	}

	selection, err := s.matchSelection(ctx, orgID, entityType, selectionType)
	if err != nil {
		return nil, err
	}
	if selection != nil {
		overrides := selection.DecodeFieldConfigurations()
		for name, truthy := range selection.DecodeSelectedFields() {
			if !truthy {
				continue
			}
			override, hasOverride := overrides[name]
			if !hasOverride {
				continue
			}
			base, known := fields[name]
			if !known {
				// Selected optional fields enter the map from their override.
				if opt, ok := typeDef.OptionalFields[name]; ok {
					base = opt
				}
			}
			fields[name] = mergeFieldDef(base, override)
		}
		for _, name := range selection.DecodeHiddenFields() {
			delete(fields, name)
		}
		for _, name := range selection.DecodeRequiredFields() {
			if def, ok := fields[name]; ok {
				def.Required = true
				fields[name] = def
			}
		}
		for _, name := range selection.DecodeReadonlyFields() {
			if def, ok := fields[name]; ok {
				def.Readonly = true
				fields[name] = def
			}
		}
	}

	form, err := s.matchForm(ctx, orgID, entityType, selectionType)
	if err != nil {
		return nil, err
	}

	return &EffectiveConfig{
		EntityType:    entityType,
		SelectionType: selectionType,
		Fields:        fields,
		Form:          form,
	}, nil
}

// ResolveSmartCode looks a smart code up among the registered smart-code
// definitions. The highest registered version of the code's base wins, so a
// caller holding a v1 code resolves to the v3 definition once one ships.
func (s *schemaManager) ResolveSmartCode(ctx context.Context, code string) (*types.SystemDefinition, error) {
	parsed, err := smartcode.Parse(code)
	if err != nil {
		return nil, apierr.Validation("smart code: %v", err)
	}
	defs, err := s.GetSystemSchema(ctx, types.SchemaKindSmartCode, "")
	if err != nil {
		return nil, err
	}

	// The v1 anchor pins the base the candidates are compared against
	// without outranking any registered version.
	anchor := parsed
	anchor.Version = 1
	candidates := make([]string, 0, len(defs)+1)
	candidates = append(candidates, anchor.String())
	for _, def := range defs {
		candidates = append(candidates, def.Code)
	}
	best, ok := smartcode.Latest(candidates)
	if !ok {
		return nil, apierr.NotFound("no smart code definition for %s", parsed.Base())
	}
	for i := range defs {
		if defs[i].Code == best {
			return &defs[i], nil
		}
	}
	return nil, apierr.NotFound("no smart code definition for %s", parsed.Base())
}

// matchSelection prefers the selection flagged default, else the first
// found, else none.
func (s *schemaManager) matchSelection(ctx context.Context, orgID uuid.UUID, entityType, selectionType string) (*types.FieldSelection, error) {
	selections, err := s.fields.List(ctx, nil, orgID, entityType, selectionType)
	if err != nil {
		return nil, fmt.Errorf("load field selections: %w", err)
	}
	if len(selections) == 0 {
		return nil, nil
	}
	return &selections[0], nil
}

func (s *schemaManager) matchForm(ctx context.Context, orgID uuid.UUID, entityType, formType string) (*types.FormConfiguration, error) {
	forms, err := s.forms.List(ctx, nil, orgID, entityType, formType)
	if err != nil {
		return nil, fmt.Errorf("load form configurations: %w", err)
	}
	if len(forms) == 0 {
		return nil, nil
	}
	return &forms[0], nil
}

// mergeFieldDef overlays non-zero override values onto the base definition.
func mergeFieldDef(base, override types.FieldDef) types.FieldDef {
	out := base
	if override.Type != "" {
		out.Type = override.Type
	}
	if override.Label != "" {
		out.Label = override.Label
	}
	if override.Required {
		out.Required = true
	}
	if override.Readonly {
		out.Readonly = true
	}
	if override.Default != nil {
		out.Default = override.Default
	}
	if len(override.Options) > 0 {
		out.Options = override.Options
	}
	if len(override.Validation) > 0 {
		out.Validation = override.Validation
	}
	return out
}

func schemaCacheKey(kind types.SchemaKind, codeFilter string) string {
	return "schema:" + string(kind) + ":" + codeFilter
}

func orgConfigCacheKey(orgID uuid.UUID) string {
	return "orgcfg:" + orgID.String()
}

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
