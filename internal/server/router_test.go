package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/heraerp/platform/internal/handlers"
	"github.com/heraerp/platform/internal/platform/cache"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/repos"
	"github.com/heraerp/platform/internal/services"
	"github.com/heraerp/platform/internal/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite3_with_uuid", DSN: ":memory:"}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&types.Entity{},
		&types.DynamicData{},
		&types.Relationship{},
		&types.Transaction{},
		&types.TransactionLine{},
		&types.SystemDefinition{},
		&types.OrgSystemConfig{},
		&types.FieldSelection{},
		&types.FormConfiguration{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log := logger.NewNop()
	entities := repos.NewEntityRepo(db, log)
	attrs := repos.NewAttributeRepo(db, log)

	factory := services.NewConfigFactory(db, log, entities, attrs)
	if err := factory.Register(services.ConfigType{
		Resource:        "service-categories",
		EntityType:      "service_category",
		SmartCodePrefix: "HERA.SALON.SVC.CAT",
		DisplayName:     "Service Category",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	schema := services.NewSchemaManager(db, log, cache.NewMemoryStore(5*time.Minute),
		repos.NewSystemDefinitionRepo(db, log),
		repos.NewOrgConfigRepo(db, log),
		repos.NewFieldSelectionRepo(db, log),
		repos.NewFormConfigurationRepo(db, log),
	)

	posting := services.NewPostingEngine(log)
	txns := services.NewTransactionService(db, log, posting, repos.NewTransactionRepo(db, log))
	rels := services.NewRelationshipService(log, entities, repos.NewRelationshipRepo(db, log))

	return NewRouter(RouterConfig{
		ServiceName:         "platform-test",
		Resources:           []string{"service-categories"},
		ResourceHandler:     handlers.NewResourceHandler(log, factory),
		SchemaHandler:       handlers.NewSchemaHandler(log, schema),
		MappingHandler:      handlers.NewMappingHandler(log, services.NewMappingEngine(log)),
		PostingHandler:      handlers.NewPostingHandler(log, posting, txns),
		RelationshipHandler: handlers.NewRelationshipHandler(log, rels),
	})
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck status: want=200 got=%d", rec.Code)
	}
}

func TestResourceCreateListDelete(t *testing.T) {
	router := newTestRouter(t)
	orgID := uuid.New().String()

	rec := do(t, router, http.MethodPost, "/api/v1/service-categories",
		`{"organization_id":"`+orgID+`","name":"Premium Wash","price":25.5,"active":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Data["code"] != "PREMIUM_WASH" {
		t.Fatalf("created code: want=PREMIUM_WASH got=%v", created.Data["code"])
	}
	id, _ := created.Data["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("created id is not a uuid: %v", created.Data["id"])
	}

	rec = do(t, router, http.MethodGet, "/api/v1/service-categories?organization_id="+orgID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var list struct {
		Items []map[string]interface{} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0]["price"] != 25.5 {
		t.Fatalf("list items: got=%+v", list.Items)
	}

	rec = do(t, router, http.MethodDelete, "/api/v1/service-categories?id="+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/v1/service-categories?organization_id="+orgID, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("deleted item still listed: %+v", list.Items)
	}
}

func TestResourceListRequiresOrg(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/v1/service-categories", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing org: want=400 got=%d", rec.Code)
	}
	var envelope handlers.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "validation_failed" {
		t.Fatalf("error code: want=validation_failed got=%q", envelope.Error.Code)
	}
}

func TestPostingApplyUnmatchedRuleStatus(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/v1/posting/apply",
		`{"smart_code":"HERA.SALON.POS.SALE.SVC.v1","total_amount":"105.00"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unmatched rule: want=422 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var envelope handlers.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "unmatched_rule" {
		t.Fatalf("error code: want=unmatched_rule got=%q", envelope.Error.Code)
	}
}

func TestRelationshipCreateAndListEndpoint(t *testing.T) {
	router := newTestRouter(t)
	orgID := uuid.New().String()

	var ids []string
	for _, name := range []string{"Washing", "Detailing"} {
		rec := do(t, router, http.MethodPost, "/api/v1/service-categories",
			`{"organization_id":"`+orgID+`","name":"`+name+`"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: want=201 got=%d body=%s", name, rec.Code, rec.Body.String())
		}
		var created struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode create response: %v", err)
		}
		ids = append(ids, created.Data["id"].(string))
	}

	rec := do(t, router, http.MethodPost, "/api/v1/relationships",
		`{"organization_id":"`+orgID+`","from_entity_id":"`+ids[0]+`","to_entity_id":"`+ids[1]+`","relationship_type":"parent_of"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("link status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/v1/relationships?organization_id="+orgID+"&type=parent_of", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Relationships []map[string]interface{} `json:"relationships"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Relationships) != 1 {
		t.Fatalf("relationship count: want=1 got=%d", len(listed.Relationships))
	}
	if listed.Relationships[0]["from_entity_id"] != ids[0] {
		t.Fatalf("from entity: want=%s got=%v", ids[0], listed.Relationships[0]["from_entity_id"])
	}

	// Linking an entity from another tenant is rejected.
	rec = do(t, router, http.MethodPost, "/api/v1/relationships",
		`{"organization_id":"`+uuid.New().String()+`","from_entity_id":"`+ids[0]+`","to_entity_id":"`+ids[1]+`","relationship_type":"parent_of"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("cross-org link: want=400 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMappingAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/v1/mapping/analyze",
		`{"records":[{"id":"r-1","customer_id":"c-1","total_amount":10}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var report struct {
		Fields        []map[string]interface{} `json:"fields"`
		Relationships []map[string]interface{} `json:"relationships"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Fields) != 3 {
		t.Fatalf("field count: want=3 got=%d", len(report.Fields))
	}
	if len(report.Relationships) != 1 {
		t.Fatalf("relationship count: want=1 got=%d", len(report.Relationships))
	}
}
