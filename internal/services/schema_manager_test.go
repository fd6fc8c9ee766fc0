package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/cache"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type fakeSystemDefinitionRepo struct {
	defs      []types.SystemDefinition
	listCalls int
}

func (f *fakeSystemDefinitionRepo) ListByKind(_ context.Context, _ *gorm.DB, kind types.SchemaKind, codeFilter string) ([]types.SystemDefinition, error) {
	f.listCalls++
	var out []types.SystemDefinition
	for _, def := range f.defs {
		if def.Kind != string(kind) {
			continue
		}
		if codeFilter != "" && def.Code != codeFilter {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

func (f *fakeSystemDefinitionRepo) GetByKindAndCode(ctx context.Context, tx *gorm.DB, kind types.SchemaKind, code string) (*types.SystemDefinition, error) {
	defs, _ := f.ListByKind(ctx, tx, kind, code)
	if len(defs) == 0 {
		return nil, nil
	}
	return &defs[0], nil
}

func (f *fakeSystemDefinitionRepo) Upsert(_ context.Context, _ *gorm.DB, def *types.SystemDefinition) error {
	f.defs = append(f.defs, *def)
	return nil
}

type fakeOrgConfigRepo struct {
	configs map[uuid.UUID]*types.OrgSystemConfig
}

func (f *fakeOrgConfigRepo) GetByOrg(_ context.Context, _ *gorm.DB, orgID uuid.UUID) (*types.OrgSystemConfig, error) {
	cfg, ok := f.configs[orgID]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

func (f *fakeOrgConfigRepo) Save(_ context.Context, _ *gorm.DB, cfg *types.OrgSystemConfig) error {
	if f.configs == nil {
		f.configs = map[uuid.UUID]*types.OrgSystemConfig{}
	}
	copied := *cfg
	f.configs[cfg.OrganizationID] = &copied
	return nil
}

type fakeFieldSelectionRepo struct {
	selections []types.FieldSelection
}

func (f *fakeFieldSelectionRepo) List(_ context.Context, _ *gorm.DB, orgID uuid.UUID, entityType, selectionType string) ([]types.FieldSelection, error) {
	var out []types.FieldSelection
	// Default-first ordering, mirroring the real repo.
	for _, sel := range f.selections {
		if sel.OrganizationID == orgID && sel.EntityType == entityType && sel.SelectionType == selectionType && sel.IsDefault {
			out = append(out, sel)
		}
	}
	for _, sel := range f.selections {
		if sel.OrganizationID == orgID && sel.EntityType == entityType && sel.SelectionType == selectionType && !sel.IsDefault {
			out = append(out, sel)
		}
	}
	return out, nil
}

func (f *fakeFieldSelectionRepo) Save(_ context.Context, _ *gorm.DB, sel *types.FieldSelection) error {
	f.selections = append(f.selections, *sel)
	return nil
}

type fakeFormConfigurationRepo struct {
	forms []types.FormConfiguration
}

func (f *fakeFormConfigurationRepo) List(_ context.Context, _ *gorm.DB, orgID uuid.UUID, entityType, formType string) ([]types.FormConfiguration, error) {
	var out []types.FormConfiguration
	for _, form := range f.forms {
		if form.OrganizationID == orgID && form.EntityType == entityType && (formType == "" || form.FormType == formType) {
			out = append(out, form)
		}
	}
	return out, nil
}

func (f *fakeFormConfigurationRepo) Save(_ context.Context, _ *gorm.DB, form *types.FormConfiguration) error {
	f.forms = append(f.forms, *form)
	return nil
}

func newTestSchemaManager(sysDefs *fakeSystemDefinitionRepo, orgCfgs *fakeOrgConfigRepo, fields *fakeFieldSelectionRepo, forms *fakeFormConfigurationRepo) SchemaManager {
	return NewSchemaManager(
		nil,
		logger.NewNop(),
		cache.NewMemoryStore(5*time.Minute),
		sysDefs,
		orgCfgs,
		fields,
		forms,
	)
}

func serviceTypeDef() types.SystemDefinition {
	return types.SystemDefinition{
		ID:       uuid.New(),
		Kind:     string(types.SchemaKindEntityType),
		Code:     "service",
		Name:     "Service",
		IsActive: true,
		Definition: []byte(`{
			"entity_type": "service",
			"base_fields": {
				"name":     {"type": "text", "label": "Name"},
				"price":    {"type": "number", "label": "Price"},
				"duration": {"type": "number", "label": "Duration"},
				"category": {"type": "text", "label": "Category"}
			}
		}`),
	}
}

func TestGetSystemSchemaCachesReads(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{serviceTypeDef()}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		defs, err := mgr.GetSystemSchema(ctx, types.SchemaKindEntityType, "service")
		if err != nil {
			t.Fatalf("GetSystemSchema: %v", err)
		}
		if len(defs) != 1 {
			t.Fatalf("definition count: want=1 got=%d", len(defs))
		}
	}
	if sysDefs.listCalls != 1 {
		t.Fatalf("store reads: want=1 got=%d", sysDefs.listCalls)
	}
}

func TestGetSystemSchemaUnknownKind(t *testing.T) {
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	_, err := mgr.GetSystemSchema(context.Background(), types.SchemaKind("bogus"), "")
	if !apierr.HasCode(err, apierr.CodeNotFound) {
		t.Fatalf("unknown kind: want not_found, got %v", err)
	}
}

func TestGetOrgConfigUnconfiguredIsNilNotError(t *testing.T) {
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	cfg, err := mgr.GetOrgConfig(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetOrgConfig: %v", err)
	}
	if cfg != nil {
		t.Fatalf("unconfigured org: want nil, got %+v", cfg)
	}
}

func TestUpsertOrgConfigShallowReplacePerKey(t *testing.T) {
	orgCfgs := &fakeOrgConfigRepo{}
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, orgCfgs, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	ctx := context.Background()
	orgID := uuid.New()

	entityTypes := []string{"service", "customer"}
	flags := map[string]bool{"pos": true}
	if _, err := mgr.UpsertOrgConfig(ctx, orgID, OrgConfigPatch{
		EnabledEntityTypes: &entityTypes,
		FeatureFlags:       &flags,
	}, "admin@test"); err != nil {
		t.Fatalf("UpsertOrgConfig: %v", err)
	}

	// Second patch touches only feature_flags; enabled_entity_types must
	// survive unchanged.
	newFlags := map[string]bool{"pos": false, "loyalty": true}
	updated, err := mgr.UpsertOrgConfig(ctx, orgID, OrgConfigPatch{FeatureFlags: &newFlags}, "admin@test")
	if err != nil {
		t.Fatalf("UpsertOrgConfig second: %v", err)
	}
	if string(updated.EnabledEntityTypes) != `["service","customer"]` {
		t.Fatalf("enabled_entity_types lost: got=%s", updated.EnabledEntityTypes)
	}
	if string(updated.FeatureFlags) != `{"loyalty":true,"pos":false}` {
		t.Fatalf("feature_flags: got=%s", updated.FeatureFlags)
	}
	if updated.UpdatedBy != "admin@test" {
		t.Fatalf("updated_by: want=%q got=%q", "admin@test", updated.UpdatedBy)
	}
}

func TestUpsertOrgConfigInvalidatesCache(t *testing.T) {
	orgCfgs := &fakeOrgConfigRepo{}
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, orgCfgs, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	ctx := context.Background()
	orgID := uuid.New()

	entityTypes := []string{"service"}
	if _, err := mgr.UpsertOrgConfig(ctx, orgID, OrgConfigPatch{EnabledEntityTypes: &entityTypes}, "a"); err != nil {
		t.Fatalf("UpsertOrgConfig: %v", err)
	}
	if _, err := mgr.GetOrgConfig(ctx, orgID); err != nil {
		t.Fatalf("GetOrgConfig (prime cache): %v", err)
	}

	updatedTypes := []string{"service", "product"}
	if _, err := mgr.UpsertOrgConfig(ctx, orgID, OrgConfigPatch{EnabledEntityTypes: &updatedTypes}, "a"); err != nil {
		t.Fatalf("UpsertOrgConfig second: %v", err)
	}
	cfg, err := mgr.GetOrgConfig(ctx, orgID)
	if err != nil {
		t.Fatalf("GetOrgConfig after upsert: %v", err)
	}
	if string(cfg.EnabledEntityTypes) != `["service","product"]` {
		t.Fatalf("stale cache after upsert: got=%s", cfg.EnabledEntityTypes)
	}
}

func TestEffectiveFieldConfigNoSelectionReturnsBaseFields(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{serviceTypeDef()}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})

	cfg, err := mgr.EffectiveFieldConfig(context.Background(), uuid.New(), "service", "list")
	if err != nil {
		t.Fatalf("EffectiveFieldConfig: %v", err)
	}
	if len(cfg.Fields) != 4 {
		t.Fatalf("field count: want=4 got=%d", len(cfg.Fields))
	}
	if cfg.Form != nil {
		t.Fatalf("form: want nil, got %+v", cfg.Form)
	}
}

func TestEffectiveFieldConfigHiddenWins(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{serviceTypeDef()}}
	orgID := uuid.New()
	fields := &fakeFieldSelectionRepo{selections: []types.FieldSelection{{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EntityType:     "service",
		SelectionType:  "form",
		IsDefault:      true,
		// price is selected, hidden AND required: hidden must win.
		SelectedFields:      []byte(`{"price": true, "category": true}`),
		HiddenFields:        []byte(`["price", "duration"]`),
		RequiredFields:      []byte(`["price", "name"]`),
		ReadonlyFields:      []byte(`["category"]`),
		FieldConfigurations: []byte(`{"category": {"label": "Service Category"}}`),
	}}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, fields, &fakeFormConfigurationRepo{})

	cfg, err := mgr.EffectiveFieldConfig(context.Background(), orgID, "service", "form")
	if err != nil {
		t.Fatalf("EffectiveFieldConfig: %v", err)
	}
	if _, present := cfg.Fields["price"]; present {
		t.Fatalf("price is hidden and must not appear: %+v", cfg.Fields["price"])
	}
	if _, present := cfg.Fields["duration"]; present {
		t.Fatalf("duration is hidden and must not appear")
	}
	if !cfg.Fields["name"].Required {
		t.Fatalf("name: want required")
	}
	category := cfg.Fields["category"]
	if !category.Readonly {
		t.Fatalf("category: want readonly")
	}
	if category.Label != "Service Category" {
		t.Fatalf("category label override: want=%q got=%q", "Service Category", category.Label)
	}
	if category.Type != "text" {
		t.Fatalf("category base type lost: got=%q", category.Type)
	}
}

func TestEffectiveFieldConfigPrefersDefaultSelection(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{serviceTypeDef()}}
	orgID := uuid.New()
	fields := &fakeFieldSelectionRepo{selections: []types.FieldSelection{
		{
			ID:             uuid.New(),
			OrganizationID: orgID,
			EntityType:     "service",
			SelectionType:  "form",
			HiddenFields:   []byte(`["category"]`),
		},
		{
			ID:             uuid.New(),
			OrganizationID: orgID,
			EntityType:     "service",
			SelectionType:  "form",
			IsDefault:      true,
			HiddenFields:   []byte(`["duration"]`),
		},
	}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, fields, &fakeFormConfigurationRepo{})

	cfg, err := mgr.EffectiveFieldConfig(context.Background(), orgID, "service", "form")
	if err != nil {
		t.Fatalf("EffectiveFieldConfig: %v", err)
	}
	if _, present := cfg.Fields["duration"]; present {
		t.Fatalf("default selection hides duration; it must not appear")
	}
	if _, present := cfg.Fields["category"]; !present {
		t.Fatalf("non-default selection must not apply; category missing")
	}
}

func TestEffectiveFieldConfigUnknownEntityType(t *testing.T) {
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	_, err := mgr.EffectiveFieldConfig(context.Background(), uuid.New(), "nope", "list")
	if !apierr.HasCode(err, apierr.CodeNotFound) {
		t.Fatalf("unknown entity type: want not_found, got %v", err)
	}
}

func smartCodeDef(code string) types.SystemDefinition {
	return types.SystemDefinition{
		ID:         uuid.New(),
		Kind:       string(types.SchemaKindSmartCode),
		Code:       code,
		Name:       code,
		Definition: []byte(`{"code":"` + code + `"}`),
		IsActive:   true,
	}
}

func TestResolveSmartCodeHighestVersionWins(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{
		smartCodeDef("HERA.SALON.POS.SALE.SVC.v1"),
		smartCodeDef("HERA.SALON.POS.SALE.SVC.v3"),
		smartCodeDef("HERA.SALON.POS.SALE.SVC.v2"),
		smartCodeDef("HERA.SALON.EXP.RENT.PAY.v9"),
	}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})

	// A v1 lookup resolves to the v3 definition; other bases never leak in.
	def, err := mgr.ResolveSmartCode(context.Background(), "HERA.SALON.POS.SALE.SVC.v1")
	if err != nil {
		t.Fatalf("ResolveSmartCode: %v", err)
	}
	if def.Code != "HERA.SALON.POS.SALE.SVC.v3" {
		t.Fatalf("resolved code: want=v3 got=%s", def.Code)
	}

	// Asking for a version past the registered set still lands on the
	// highest registered one.
	def, err = mgr.ResolveSmartCode(context.Background(), "HERA.SALON.POS.SALE.SVC.v7")
	if err != nil {
		t.Fatalf("ResolveSmartCode v7: %v", err)
	}
	if def.Code != "HERA.SALON.POS.SALE.SVC.v3" {
		t.Fatalf("resolved code for v7: want=v3 got=%s", def.Code)
	}
}

func TestResolveSmartCodeUnknownBase(t *testing.T) {
	sysDefs := &fakeSystemDefinitionRepo{defs: []types.SystemDefinition{
		smartCodeDef("HERA.SALON.POS.SALE.SVC.v1"),
	}}
	mgr := newTestSchemaManager(sysDefs, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})

	_, err := mgr.ResolveSmartCode(context.Background(), "HERA.SALON.POS.SALE.PROD.v1")
	if !apierr.HasCode(err, apierr.CodeNotFound) {
		t.Fatalf("unknown base: want not_found, got %v", err)
	}
}

func TestResolveSmartCodeMalformed(t *testing.T) {
	mgr := newTestSchemaManager(&fakeSystemDefinitionRepo{}, &fakeOrgConfigRepo{}, &fakeFieldSelectionRepo{}, &fakeFormConfigurationRepo{})
	_, err := mgr.ResolveSmartCode(context.Background(), "not-a-code")
	if !apierr.HasCode(err, apierr.CodeValidation) {
		t.Fatalf("malformed code: want validation_failed, got %v", err)
	}
}
