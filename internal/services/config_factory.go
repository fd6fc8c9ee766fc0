package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/platform/smartcode"
	"github.com/heraerp/platform/internal/repos"
	"github.com/heraerp/platform/internal/types"
)

// FieldSpec declares one default field of a config type, used to seed forms
// and to document the resource.
type FieldSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// ConfigType is the declarative descriptor the factory turns into full CRUD
// behavior. RelatedEntityType/RelatedFieldName wire the referential guard and
// the per-item related counts.
type ConfigType struct {
	Resource          string      `json:"resource"`
	EntityType        string      `json:"entity_type"`
	SmartCodePrefix   string      `json:"smart_code_prefix"`
	DisplayName       string      `json:"display_name"`
	RelatedEntityType string      `json:"related_entity_type,omitempty"`
	RelatedFieldName  string      `json:"related_field_name,omitempty"`
	DefaultFields     []FieldSpec `json:"default_fields,omitempty"`
}

type ListResult struct {
	Items     []map[string]interface{} `json:"items"`
	Analytics map[string]interface{}   `json:"analytics"`
}

// BulkResult reports a continue-on-error batch: Results[i] and Errors[i]
// line up with the input rows, exactly one of them set per row.
type BulkResult struct {
	Results []map[string]interface{} `json:"results"`
	Errors  []string                 `json:"errors"`
}

// reservedFields are entity-level keys; everything else in a create/update
// payload fans out to core_dynamic_data.
var reservedFields = map[string]bool{
	"id":              true,
	"organization_id": true,
	"name":            true,
	"code":            true,
	"smart_code":      true,
	"status":          true,
}

type ConfigFactory interface {
	Register(cfg ConfigType) error
	Resources() []ConfigType
	Lookup(resource string) (ConfigType, bool)
	List(ctx context.Context, resource string, orgID uuid.UUID) (*ListResult, error)
	Create(ctx context.Context, resource string, orgID uuid.UUID, input map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, resource string, id uuid.UUID, input map[string]interface{}) error
	Delete(ctx context.Context, resource string, id uuid.UUID) error
	BulkImport(ctx context.Context, resource string, orgID uuid.UUID, rows []map[string]interface{}) (*BulkResult, error)
}

type configFactory struct {
	db       *gorm.DB
	log      *logger.Logger
	entities repos.EntityRepo
	attrs    repos.AttributeRepo
	registry map[string]ConfigType
	order    []string
}

func NewConfigFactory(db *gorm.DB, baseLog *logger.Logger, entities repos.EntityRepo, attrs repos.AttributeRepo) ConfigFactory {
	return &configFactory{
		db:       db,
		log:      baseLog.With("service", "ConfigFactory"),
		entities: entities,
		attrs:    attrs,
		registry: map[string]ConfigType{},
	}
}

func (f *configFactory) Register(cfg ConfigType) error {
	if cfg.Resource == "" || cfg.EntityType == "" {
		return apierr.Validation("config type needs resource and entity_type")
	}
	// The prefix must synthesize parseable smart codes.
	if err := smartcode.Validate(cfg.SmartCodePrefix + ".SAMPLE.v1"); err != nil {
		return apierr.Validation("smart_code_prefix %q: %v", cfg.SmartCodePrefix, err)
	}
	if cfg.RelatedEntityType != "" && cfg.RelatedFieldName == "" {
		return apierr.Validation("config type %q sets related_entity_type without related_field_name", cfg.Resource)
	}
	if _, exists := f.registry[cfg.Resource]; !exists {
		f.order = append(f.order, cfg.Resource)
	}
	f.registry[cfg.Resource] = cfg
	f.log.Info("config type registered", "resource", cfg.Resource, "entity_type", cfg.EntityType)
	return nil
}

func (f *configFactory) Resources() []ConfigType {
	out := make([]ConfigType, 0, len(f.order))
	for _, resource := range f.order {
		out = append(out, f.registry[resource])
	}
	return out
}

func (f *configFactory) Lookup(resource string) (ConfigType, bool) {
	cfg, ok := f.registry[resource]
	return cfg, ok
}

func (f *configFactory) List(ctx context.Context, resource string, orgID uuid.UUID) (*ListResult, error) {
	cfg, ok := f.registry[resource]
	if !ok {
		return nil, apierr.NotFound("unknown resource %q", resource)
	}
	if orgID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}

	items, err := f.entities.ListByType(ctx, nil, orgID, cfg.EntityType)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cfg.EntityType, err)
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	attrsByEntity, err := f.attrs.GetForEntities(ctx, nil, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("load attributes: %w", err)
	}

	var (
		related       []*types.Entity
		relatedAttrs  map[uuid.UUID]map[string]types.TypedValue
		relatedByCode map[string]int
		relatedTotal  int
	)
	if cfg.RelatedEntityType != "" {
		related, err = f.entities.ListByType(ctx, nil, orgID, cfg.RelatedEntityType)
		if err != nil {
			return nil, fmt.Errorf("list related %s: %w", cfg.RelatedEntityType, err)
		}
		relatedIDs := make([]uuid.UUID, 0, len(related))
		for _, rel := range related {
			relatedIDs = append(relatedIDs, rel.ID)
		}
		relatedAttrs, err = f.attrs.GetForEntities(ctx, nil, orgID, relatedIDs)
		if err != nil {
			return nil, fmt.Errorf("load related attributes: %w", err)
		}
		relatedTotal = len(related)
		relatedByCode = map[string]int{}
		for _, rel := range related {
			if ref := referenceValue(rel, relatedAttrs[rel.ID], cfg.RelatedFieldName); ref != "" {
				relatedByCode[ref]++
			}
		}
	}

	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		flat := map[string]interface{}{
			"id":              item.ID,
			"organization_id": item.OrganizationID,
			"name":            item.EntityName,
			"code":            item.EntityCode,
			"smart_code":      item.SmartCode,
			"status":          item.Status,
			"created_at":      item.CreatedAt,
			"updated_at":      item.UpdatedAt,
		}
		for fieldName, value := range attrsByEntity[item.ID] {
			flat[fieldName] = value.AsAny()
		}
		if cfg.RelatedEntityType != "" {
			flat[cfg.RelatedEntityType+"_count"] = relatedByCode[item.EntityCode]
		}
		out = append(out, flat)
	}

	analytics := map[string]interface{}{
		"total":  len(items),
		"active": countActive(items),
	}
	if cfg.RelatedEntityType != "" {
		analytics[cfg.RelatedEntityType+"_total"] = relatedTotal
		average := 0.0
		if len(items) > 0 {
			average = float64(relatedTotal) / float64(len(items))
		}
		analytics[cfg.RelatedEntityType+"_average"] = average
	}

	return &ListResult{Items: out, Analytics: analytics}, nil
}

// Create writes the entity row, then fans one attribute row out per extra
// input field. The two phases are not atomic in the store, so an attribute
// failure triggers a compensating hard delete of everything written before
// the original error is surfaced.
func (f *configFactory) Create(ctx context.Context, resource string, orgID uuid.UUID, input map[string]interface{}) (map[string]interface{}, error) {
	cfg, ok := f.registry[resource]
	if !ok {
		return nil, apierr.NotFound("unknown resource %q", resource)
	}
	if orgID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	name, _ := input["name"].(string)
	if strings.TrimSpace(name) == "" {
		return nil, apierr.Validation("name is required")
	}
	code, _ := input["code"].(string)
	if code == "" {
		code = NormalizeCode(name)
	}
	if code == "" {
		return nil, apierr.Validation("name %q yields an empty code", name)
	}

	// Convert every extra field up front so a bad value is a validation
	// error before anything is written.
	fieldNames := make([]string, 0, len(input))
	for key := range input {
		if !reservedFields[key] {
			fieldNames = append(fieldNames, key)
		}
	}
	sort.Strings(fieldNames)
	values := make(map[string]types.TypedValue, len(fieldNames))
	for _, fieldName := range fieldNames {
		value, err := types.FromAny(input[fieldName])
		if err != nil {
			return nil, apierr.Validation("field %q: %v", fieldName, err)
		}
		values[fieldName] = value
	}

	entity := &types.Entity{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EntityType:     cfg.EntityType,
		EntityName:     name,
		EntityCode:     code,
		SmartCode:      fmt.Sprintf("%s.%s.v1", cfg.SmartCodePrefix, code),
		Status:         types.EntityStatusActive,
	}
	if _, err := f.entities.Create(ctx, nil, entity); err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.EntityType, err)
	}

	for _, fieldName := range fieldNames {
		if err := f.attrs.Put(ctx, nil, orgID, entity.ID, fieldName, values[fieldName]); err != nil {
			f.compensateCreate(ctx, orgID, entity.ID)
			return nil, apierr.PartialWrite(err)
		}
	}

	f.log.Info("entity created", "resource", resource, "entity_id", entity.ID, "code", code)
	result := map[string]interface{}{
		"id":         entity.ID,
		"name":       entity.EntityName,
		"code":       entity.EntityCode,
		"smart_code": entity.SmartCode,
		"status":     entity.Status,
	}
	for _, fieldName := range fieldNames {
		result[fieldName] = values[fieldName].AsAny()
	}
	return result, nil
}

// compensateCreate undoes a half-finished create: attribute rows first, then
// the entity row they hang off.
func (f *configFactory) compensateCreate(ctx context.Context, orgID, entityID uuid.UUID) {
	if err := f.attrs.DeleteForEntity(ctx, nil, orgID, entityID); err != nil {
		f.log.Error("compensation: attribute cleanup failed", "entity_id", entityID, "error", err)
	}
	if err := f.entities.HardDelete(ctx, nil, entityID); err != nil {
		f.log.Error("compensation: entity delete failed", "entity_id", entityID, "error", err)
	}
}

func (f *configFactory) Update(ctx context.Context, resource string, id uuid.UUID, input map[string]interface{}) error {
	cfg, ok := f.registry[resource]
	if !ok {
		return apierr.NotFound("unknown resource %q", resource)
	}
	entity, err := f.entities.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.EntityType, err)
	}
	if entity == nil || entity.EntityType != cfg.EntityType {
		return apierr.NotFound("%s %s not found", cfg.EntityType, id)
	}

	if raw, ok := input["name"]; ok {
		name, _ := raw.(string)
		if strings.TrimSpace(name) == "" {
			return apierr.Validation("name cannot be empty")
		}
		if err := f.entities.UpdateName(ctx, nil, id, name); err != nil {
			return fmt.Errorf("update name: %w", err)
		}
	}

	fieldNames := make([]string, 0, len(input))
	for key := range input {
		if !reservedFields[key] {
			fieldNames = append(fieldNames, key)
		}
	}
	sort.Strings(fieldNames)
	for _, fieldName := range fieldNames {
		value, err := types.FromAny(input[fieldName])
		if err != nil {
			return apierr.Validation("field %q: %v", fieldName, err)
		}
		// Upsert by (entity_id, field_name); the org comes off the entity row.
		if err := f.attrs.Put(ctx, nil, entity.OrganizationID, id, fieldName, value); err != nil {
			return fmt.Errorf("update field %q: %w", fieldName, err)
		}
	}
	return nil
}

// Delete soft-deletes, but only once nothing still references the item's
// code from the configured related entity type.
func (f *configFactory) Delete(ctx context.Context, resource string, id uuid.UUID) error {
	cfg, ok := f.registry[resource]
	if !ok {
		return apierr.NotFound("unknown resource %q", resource)
	}
	entity, err := f.entities.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.EntityType, err)
	}
	if entity == nil || entity.EntityType != cfg.EntityType {
		return apierr.NotFound("%s %s not found", cfg.EntityType, id)
	}

	if cfg.RelatedEntityType != "" {
		refCount, err := f.countReferences(ctx, entity.OrganizationID, cfg, entity.EntityCode)
		if err != nil {
			return err
		}
		if refCount > 0 {
			return apierr.ReferentialGuard("%d %s record(s) still reference %q", refCount, cfg.RelatedEntityType, entity.EntityCode)
		}
	}

	if err := f.entities.SetStatus(ctx, nil, id, types.EntityStatusDeleted); err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	f.log.Info("entity soft-deleted", "resource", resource, "entity_id", id)
	return nil
}

// BulkImport runs creates sequentially, each awaited before the next, and
// records per-row outcomes instead of aborting the batch.
func (f *configFactory) BulkImport(ctx context.Context, resource string, orgID uuid.UUID, rows []map[string]interface{}) (*BulkResult, error) {
	if _, ok := f.registry[resource]; !ok {
		return nil, apierr.NotFound("unknown resource %q", resource)
	}
	result := &BulkResult{
		Results: make([]map[string]interface{}, len(rows)),
		Errors:  make([]string, len(rows)),
	}
	for i, row := range rows {
		created, err := f.Create(ctx, resource, orgID, row)
		if err != nil {
			result.Errors[i] = err.Error()
			continue
		}
		result.Results[i] = created
	}
	return result, nil
}

func (f *configFactory) countReferences(ctx context.Context, orgID uuid.UUID, cfg ConfigType, code string) (int, error) {
	related, err := f.entities.ListByType(ctx, nil, orgID, cfg.RelatedEntityType)
	if err != nil {
		return 0, fmt.Errorf("list related %s: %w", cfg.RelatedEntityType, err)
	}
	ids := make([]uuid.UUID, 0, len(related))
	for _, rel := range related {
		ids = append(ids, rel.ID)
	}
	relatedAttrs, err := f.attrs.GetForEntities(ctx, nil, orgID, ids)
	if err != nil {
		return 0, fmt.Errorf("load related attributes: %w", err)
	}
	count := 0
	for _, rel := range related {
		if referenceValue(rel, relatedAttrs[rel.ID], cfg.RelatedFieldName) == code {
			count++
		}
	}
	return count, nil
}

// referenceValue resolves which item a related entity points at, checking
// its metadata first and its attribute rows second.
func referenceValue(entity *types.Entity, attrs map[string]types.TypedValue, fieldName string) string {
	if len(entity.Metadata) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(entity.Metadata, &meta); err == nil {
			if raw, ok := meta[fieldName]; ok {
				if s, ok := raw.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	if value, ok := attrs[fieldName]; ok && value.Kind() == types.KindText {
		return value.Text()
	}
	return ""
}

func countActive(items []*types.Entity) int {
	active := 0
	for _, item := range items {
		if item.Status == types.EntityStatusActive {
			active++
		}
	}
	return active
}

// NormalizeCode uppercases a display name and collapses every run of
// non-alphanumerics into a single underscore: "Premium Wash" -> "PREMIUM_WASH".
func NormalizeCode(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
