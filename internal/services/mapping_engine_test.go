package services

import (
	"testing"

	"github.com/heraerp/platform/internal/platform/logger"
)

func newTestMappingEngine() MappingEngine {
	return NewMappingEngine(logger.NewNop())
}

func TestInferBusinessMeaning(t *testing.T) {
	engine := newTestMappingEngine()
	cases := []struct {
		field string
		value interface{}
		want  string
	}{
		{"total_price", 25.5, "financial amount"},
		{"contact_email", "a@b.c", "contact information"},
		{"created_at", "2024-01-01", "audit timestamp"},
		{"customer_id", "c-1", "unique identifier"},
		{"is_active_flag", true, "status indicator"},
		{"display_name", "x", "descriptive text"},
		{"qty", 3, "quantity measure"},
		{"payload", map[string]interface{}{"b": 1, "a": 2}, "structured record of a, b"},
		{"misc", 42, "general business data field"},
	}
	for _, tc := range cases {
		if got := engine.InferBusinessMeaning(tc.field, tc.value); got != tc.want {
			t.Fatalf("InferBusinessMeaning(%q): want=%q got=%q", tc.field, tc.want, got)
		}
	}
}

func TestRecommendStorageSmallFlatObjectFlattens(t *testing.T) {
	engine := newTestMappingEngine()
	obj := map[string]interface{}{
		"street": "1 Main St",
		"city":   "Berlin",
		"zip":    "10115",
	}
	if got := engine.RecommendStorage(obj); got != StorageFlattenToAttributes {
		t.Fatalf("small flat object: want=%s got=%s", StorageFlattenToAttributes, got)
	}
}

func TestRecommendStorageEntityLikeObjectWinsOverSize(t *testing.T) {
	engine := newTestMappingEngine()
	// Small and shallow, but id/name/status/type mark it as its own entity.
	obj := map[string]interface{}{
		"id":     "c-1",
		"name":   "Acme",
		"status": "active",
		"type":   "customer",
	}
	if got := engine.RecommendStorage(obj); got != StorageSeparateEntity {
		t.Fatalf("entity-like object: want=%s got=%s", StorageSeparateEntity, got)
	}
}

func TestRecommendStorageDeepOrWideStaysStructured(t *testing.T) {
	engine := newTestMappingEngine()
	deep := map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{
				"c": 1,
			},
		},
	}
	if got := engine.RecommendStorage(deep); got != StorageKeepStructured {
		t.Fatalf("deep object: want=%s got=%s", StorageKeepStructured, got)
	}
	wide := map[string]interface{}{
		"f1": 1, "f2": 2, "f3": 3, "f4": 4, "f5": 5, "f6": 6,
	}
	if got := engine.RecommendStorage(wide); got != StorageKeepStructured {
		t.Fatalf("wide object: want=%s got=%s", StorageKeepStructured, got)
	}
}

func TestMapToUniversalTablesTargets(t *testing.T) {
	engine := newTestMappingEngine()
	record := map[string]interface{}{
		"id":           "r-1",
		"display_name": "Acme",
		"parent_id":    "r-0",
		"total_amount": 99.5,
		"notes":        "free text",
	}
	mappings := engine.MapToUniversalTables(record)

	byField := map[string]FieldMapping{}
	for _, m := range mappings {
		byField[m.Field] = m
	}
	wantTargets := map[string]string{
		"id":           TargetEntityID,
		"display_name": TargetEntityName,
		"parent_id":    TargetEntityID, // the _id suffix outranks hierarchy naming
		"total_amount": TargetTransactionTotal,
		"notes":        TargetDynamicData,
	}
	for field, want := range wantTargets {
		if byField[field].Target != want {
			t.Fatalf("target for %q: want=%s got=%s", field, want, byField[field].Target)
		}
	}
	for _, m := range mappings {
		if m.Confidence < 0 || m.Confidence > 1 {
			t.Fatalf("confidence for %q out of range: %v", m.Field, m.Confidence)
		}
	}
}

func TestConfidenceBonuses(t *testing.T) {
	engine := newTestMappingEngine()
	mappings := engine.MapToUniversalTables(map[string]interface{}{
		"misc":       struct{}{}, // no bonuses
		"id":         "x",        // string +0.1, id +0.2
		"name_date":  "y",        // string +0.1, name +0.15, date +0.1
		"id_name_dt": 7,          // number +0.1, id +0.2, name +0.15
	})
	want := map[string]float64{
		"misc":       0.5,
		"id":         0.8,
		"name_date":  0.85,
		"id_name_dt": 0.95,
	}
	for _, m := range mappings {
		if diff := m.Confidence - want[m.Field]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("confidence for %q: want=%v got=%v", m.Field, want[m.Field], m.Confidence)
		}
	}
}

func TestDetectRelationships(t *testing.T) {
	engine := newTestMappingEngine()
	hints := engine.DetectRelationships([]map[string]interface{}{
		{"type": "order", "customer_id": "c-1", "parent_id": "o-0", "note": "x"},
		{"type": "order", "customer_id": "c-2"}, // duplicate field, no second hint
	})
	if len(hints) != 2 {
		t.Fatalf("hint count: want=2 got=%d", len(hints))
	}
	byField := map[string]RelationshipHint{}
	for _, h := range hints {
		byField[h.Field] = h
	}
	fk := byField["customer_id"]
	if fk.ParentEntity != "customer" || fk.ChildEntity != "order" || fk.RelationshipType != "belongs_to" || fk.Confidence != 0.6 {
		t.Fatalf("foreign key hint: got=%+v", fk)
	}
	hier := byField["parent_id"]
	if hier.RelationshipType != "hierarchy" || hier.ParentEntity != "order" || hier.Confidence != 0.7 {
		t.Fatalf("hierarchy hint: got=%+v", hier)
	}
}

func TestAnalyzeStructureWalksNestedObjectsAndArrays(t *testing.T) {
	engine := newTestMappingEngine()
	report := engine.AnalyzeStructure([]map[string]interface{}{{
		"name": "Acme",
		"address": map[string]interface{}{
			"city": "Berlin",
		},
		"tags": []interface{}{"a", 1},
	}})

	if len(report.Objects) != 2 {
		t.Fatalf("object count: want=2 got=%d", len(report.Objects))
	}
	root := report.Objects[0]
	if root.Path != "$[0]" || root.Depth != 2 {
		t.Fatalf("root object: got=%+v", root)
	}
	if root.InferredTypes["address"] != "object" || root.InferredTypes["tags"] != "array" {
		t.Fatalf("inferred types: got=%v", root.InferredTypes)
	}
	nested := report.Objects[1]
	if nested.Path != "$[0].address" || nested.Depth != 1 {
		t.Fatalf("nested object: got=%+v", nested)
	}

	if len(report.Arrays) != 1 {
		t.Fatalf("array count: want=1 got=%d", len(report.Arrays))
	}
	arr := report.Arrays[0]
	if arr.Path != "$[0].tags" || arr.Length != 2 {
		t.Fatalf("array info: got=%+v", arr)
	}
	if len(arr.ElementTypes) != 2 || arr.ElementTypes[0] != "number" || arr.ElementTypes[1] != "string" {
		t.Fatalf("element types: got=%v", arr.ElementTypes)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	engine := newTestMappingEngine()
	records := []map[string]interface{}{{
		"id":          "r-1",
		"name":        "Acme",
		"customer_id": "c-1",
		"address": map[string]interface{}{
			"city": "Berlin",
			"zip":  "10115",
		},
	}}

	first := engine.Analyze(records)
	for i := 0; i < 5; i++ {
		again := engine.Analyze(records)
		if len(again.Fields) != len(first.Fields) {
			t.Fatalf("field count drifted: want=%d got=%d", len(first.Fields), len(again.Fields))
		}
		for j := range first.Fields {
			if again.Fields[j] != first.Fields[j] {
				t.Fatalf("field %d drifted: want=%+v got=%+v", j, first.Fields[j], again.Fields[j])
			}
		}
		if again.Recommendations["address"] != first.Recommendations["address"] {
			t.Fatalf("recommendation drifted")
		}
	}
	if first.Recommendations["address"] != StorageFlattenToAttributes {
		t.Fatalf("address recommendation: want=%s got=%s", StorageFlattenToAttributes, first.Recommendations["address"])
	}
}
