package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/heraerp/platform/internal/platform/logger"
)

// The mapping engine is deterministic pattern matching over field names and
// value shapes. It proposes where foreign data should land in the universal
// tables; callers must treat everything here as advisory, never authoritative.

type StorageRecommendation string

const (
	StorageFlattenToAttributes StorageRecommendation = "flatten_to_attributes"
	StorageSeparateEntity      StorageRecommendation = "create_separate_entity"
	StorageKeepStructured      StorageRecommendation = "keep_as_structured_value"
)

const (
	TargetEntityID         = "core_entities.id"
	TargetEntityName       = "core_entities.entity_name"
	TargetRelationship     = "core_relationships.relationship_type"
	TargetTransactionTotal = "universal_transactions.total_amount"
	TargetDynamicData      = "core_dynamic_data"
)

type NestedObjectInfo struct {
	Path          string            `json:"path"`
	Depth         int               `json:"depth"`
	Keys          []string          `json:"keys"`
	InferredTypes map[string]string `json:"inferred_types"`
}

type ArrayInfo struct {
	Path         string   `json:"path"`
	Length       int      `json:"length"`
	ElementTypes []string `json:"element_types"`
}

type StructureReport struct {
	Objects []NestedObjectInfo `json:"objects"`
	Arrays  []ArrayInfo        `json:"arrays"`
}

type FieldMapping struct {
	Field      string  `json:"field"`
	Target     string  `json:"target"`
	Meaning    string  `json:"meaning"`
	Confidence float64 `json:"confidence"`
}

type RelationshipHint struct {
	ParentEntity     string  `json:"parent_entity"`
	ChildEntity      string  `json:"child_entity"`
	RelationshipType string  `json:"relationship_type"`
	Field            string  `json:"field"`
	Confidence       float64 `json:"confidence"`
}

type MappingReport struct {
	Structure       StructureReport                  `json:"structure"`
	Fields          []FieldMapping                   `json:"fields"`
	Recommendations map[string]StorageRecommendation `json:"recommendations"`
	Relationships   []RelationshipHint               `json:"relationships"`
}

type MappingEngine interface {
	AnalyzeStructure(records []map[string]interface{}) StructureReport
	InferBusinessMeaning(fieldName string, value interface{}) string
	RecommendStorage(obj map[string]interface{}) StorageRecommendation
	MapToUniversalTables(record map[string]interface{}) []FieldMapping
	DetectRelationships(records []map[string]interface{}) []RelationshipHint
	Analyze(records []map[string]interface{}) *MappingReport
}

type mappingEngine struct {
	log *logger.Logger
}

func NewMappingEngine(baseLog *logger.Logger) MappingEngine {
	return &mappingEngine{log: baseLog.With("service", "MappingEngine")}
}

// meaningRules is the ordered table behind InferBusinessMeaning; first match
// wins.
var meaningRules = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)(amount|price|cost|total|fee|rate|balance|salary|wage|revenue)`), "financial amount"},
	{regexp.MustCompile(`(?i)(email|phone|mobile|fax|address|contact)`), "contact information"},
	{regexp.MustCompile(`(?i)(created_at|updated_at|deleted_at|timestamp|_date|date_|^date$|_time|^time$)`), "audit timestamp"},
	{regexp.MustCompile(`(?i)(^id$|_id$|uuid|code|reference|ref$)`), "unique identifier"},
	{regexp.MustCompile(`(?i)(status|state|active|enabled|flag)`), "status indicator"},
	{regexp.MustCompile(`(?i)(name|title|label|description)`), "descriptive text"},
	{regexp.MustCompile(`(?i)(quantity|count|qty|units)`), "quantity measure"},
}

// entityIndicatorKeys are the keys whose presence makes a nested object look
// like a standalone entity. Two or more hits tips the storage recommendation.
var entityIndicatorKeys = []string{"id", "name", "type", "status", "created_at"}

const (
	flattenMaxDepth = 2
	flattenMaxKeys  = 5
	minEntityHits   = 2
)

func (e *mappingEngine) AnalyzeStructure(records []map[string]interface{}) StructureReport {
	report := StructureReport{}
	for i, record := range records {
		walkStructure(fmt.Sprintf("$[%d]", i), record, &report)
	}
	sort.Slice(report.Objects, func(a, b int) bool { return report.Objects[a].Path < report.Objects[b].Path })
	sort.Slice(report.Arrays, func(a, b int) bool { return report.Arrays[a].Path < report.Arrays[b].Path })
	return report
}

func walkStructure(path string, obj map[string]interface{}, report *StructureReport) {
	keys := sortedKeys(obj)
	inferred := make(map[string]string, len(obj))
	for _, key := range keys {
		inferred[key] = valueType(obj[key])
	}
	report.Objects = append(report.Objects, NestedObjectInfo{
		Path:          path,
		Depth:         objectDepth(obj),
		Keys:          keys,
		InferredTypes: inferred,
	})
	for _, key := range keys {
		switch child := obj[key].(type) {
		case map[string]interface{}:
			walkStructure(path+"."+key, child, report)
		case []interface{}:
			report.Arrays = append(report.Arrays, ArrayInfo{
				Path:         path + "." + key,
				Length:       len(child),
				ElementTypes: distinctElementTypes(child),
			})
			for j, elem := range child {
				if childObj, ok := elem.(map[string]interface{}); ok {
					walkStructure(fmt.Sprintf("%s.%s[%d]", path, key, j), childObj, report)
				}
			}
		}
	}
}

func (e *mappingEngine) InferBusinessMeaning(fieldName string, value interface{}) string {
	for _, rule := range meaningRules {
		if rule.re.MatchString(fieldName) {
			return rule.label
		}
	}
	if obj, ok := value.(map[string]interface{}); ok {
		return "structured record of " + strings.Join(sortedKeys(obj), ", ")
	}
	return "general business data field"
}

// RecommendStorage decides the ingestion shape of one nested object. The
// entity-likeness test runs before the size test so an object carrying
// id/name/status style keys becomes its own entity even when it is small.
func (e *mappingEngine) RecommendStorage(obj map[string]interface{}) StorageRecommendation {
	hits := 0
	for _, indicator := range entityIndicatorKeys {
		if _, ok := obj[indicator]; ok {
			hits++
		}
	}
	if hits >= minEntityHits {
		return StorageSeparateEntity
	}
	if objectDepth(obj) <= flattenMaxDepth && len(obj) <= flattenMaxKeys {
		return StorageFlattenToAttributes
	}
	return StorageKeepStructured
}

var (
	entityIDRe     = regexp.MustCompile(`(?i)^([a-z][a-z0-9]*(_[a-z0-9]+)*_)?(id|uuid)$`)
	nameLikeRe     = regexp.MustCompile(`(?i)(^|_)(name|title|label)($|_)`)
	nameExcludeRe  = regexp.MustCompile(`(?i)(file|user)`)
	hierarchyRe    = regexp.MustCompile(`(?i)(parent|child|owner|manager)`)
	moneyRe        = regexp.MustCompile(`(?i)(amount|price|cost|total)`)
	containsIDRe   = regexp.MustCompile(`(?i)id`)
	containsNameRe = regexp.MustCompile(`(?i)name`)
	containsDateRe = regexp.MustCompile(`(?i)date`)
)

// MapToUniversalTables walks the top-level fields of one record through the
// ordered target rules, independent of nesting.
func (e *mappingEngine) MapToUniversalTables(record map[string]interface{}) []FieldMapping {
	out := make([]FieldMapping, 0, len(record))
	for _, field := range sortedKeys(record) {
		value := record[field]
		mapping := FieldMapping{
			Field:      field,
			Target:     targetFor(field, value),
			Meaning:    e.InferBusinessMeaning(field, value),
			Confidence: confidenceFor(field, value),
		}
		out = append(out, mapping)
	}
	return out
}

func targetFor(field string, value interface{}) string {
	switch {
	case entityIDRe.MatchString(field):
		return TargetEntityID
	case nameLikeRe.MatchString(field) && !nameExcludeRe.MatchString(field):
		return TargetEntityName
	case hierarchyRe.MatchString(field):
		return TargetRelationship
	case moneyRe.MatchString(field) && isNumber(value):
		return TargetTransactionTotal
	default:
		return TargetDynamicData
	}
}

// confidenceFor starts every field at 0.5 and adds fixed bonuses; the result
// always lands in [0, 1].
func confidenceFor(field string, value interface{}) float64 {
	confidence := 0.5
	if s, ok := value.(string); ok && s != "" {
		confidence += 0.1
	}
	if isNumber(value) {
		confidence += 0.1
	}
	if containsIDRe.MatchString(field) {
		confidence += 0.2
	}
	if containsNameRe.MatchString(field) {
		confidence += 0.15
	}
	if containsDateRe.MatchString(field) {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

var foreignKeyRe = regexp.MustCompile(`(?i)^([a-z][a-z0-9_]*)_id$`)

// DetectRelationships proposes edges from identifier and hierarchy field
// naming across the batch. Heuristic by design; false positives expected.
func (e *mappingEngine) DetectRelationships(records []map[string]interface{}) []RelationshipHint {
	seen := map[string]bool{}
	var hints []RelationshipHint
	for _, record := range records {
		childEntity := recordType(record)
		for _, field := range sortedKeys(record) {
			if seen[field] {
				continue
			}
			if match := foreignKeyRe.FindStringSubmatch(field); match != nil {
				seen[field] = true
				parent := match[1]
				relationshipType := "belongs_to"
				confidence := 0.6
				if hierarchyRe.MatchString(parent) {
					relationshipType = "hierarchy"
					confidence = 0.7
					parent = childEntity
				}
				hints = append(hints, RelationshipHint{
					ParentEntity:     parent,
					ChildEntity:      childEntity,
					RelationshipType: relationshipType,
					Field:            field,
					Confidence:       confidence,
				})
			}
		}
	}
	return hints
}

func (e *mappingEngine) Analyze(records []map[string]interface{}) *MappingReport {
	report := &MappingReport{
		Structure:       e.AnalyzeStructure(records),
		Recommendations: map[string]StorageRecommendation{},
	}

	seenFields := map[string]bool{}
	for _, record := range records {
		for _, mapping := range e.MapToUniversalTables(record) {
			if seenFields[mapping.Field] {
				continue
			}
			seenFields[mapping.Field] = true
			report.Fields = append(report.Fields, mapping)
		}
		for _, field := range sortedKeys(record) {
			if obj, ok := record[field].(map[string]interface{}); ok {
				if _, done := report.Recommendations[field]; !done {
					report.Recommendations[field] = e.RecommendStorage(obj)
				}
			}
		}
	}
	sort.Slice(report.Fields, func(a, b int) bool { return report.Fields[a].Field < report.Fields[b].Field })
	report.Relationships = e.DetectRelationships(records)
	return report
}

func recordType(record map[string]interface{}) string {
	if t, ok := record["type"].(string); ok && t != "" {
		return t
	}
	if t, ok := record["entity_type"].(string); ok && t != "" {
		return t
	}
	return "record"
}

// objectDepth is 1 for an object of scalars and grows only through nested
// objects (directly or inside arrays).
func objectDepth(obj map[string]interface{}) int {
	depth := 1
	for _, value := range obj {
		switch child := value.(type) {
		case map[string]interface{}:
			if d := 1 + objectDepth(child); d > depth {
				depth = d
			}
		case []interface{}:
			for _, elem := range child {
				if childObj, ok := elem.(map[string]interface{}); ok {
					if d := 1 + objectDepth(childObj); d > depth {
						depth = d
					}
				}
			}
		}
	}
	return depth
}

func valueType(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func distinctElementTypes(items []interface{}) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		t := valueType(item)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
