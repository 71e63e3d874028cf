package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/advice"
	"github.com/tbourn/go-gateway-errors/internal/codes"
	"github.com/tbourn/go-gateway-errors/internal/dispatch"
	"github.com/tbourn/go-gateway-errors/internal/domain"
	"github.com/tbourn/go-gateway-errors/internal/repo"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// --- helpers ---

func newJournalDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newAdminEngine(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	reg := dispatch.Build(taxonomy.Default(),
		[]dispatch.Advice{advice.NewDefault(zerolog.Nop())},
		dispatch.WithLogger(zerolog.Nop()))
	b := NewBoundary(dispatch.NewDispatcher(reg, dispatch.WithLogger(zerolog.Nop())))
	h := NewAdmin(reg, db, language.English)

	r := newEngine(b)
	r.GET("/health", h.Health)
	r.GET("/codes", h.Codes)
	r.GET("/handlers", h.Handlers)
	r.GET("/errors", h.Errors)
	r.GET("/errors/stats", h.ErrorStats)
	return r
}

// get issues a GET and decodes the envelope; data is unmarshalled into out
// when non-nil.
func get(t *testing.T, r *gin.Engine, target string, hdr map[string]string, out any) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d (%s)", target, w.Code, w.Body.String())
	}
	if out != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
	return decode(t, w)
}

func seed(t *testing.T, db *gorm.DB, tag, code string, at time.Time) {
	t.Helper()
	ev := domain.ErrorEvent{
		Method:    http.MethodGet,
		Path:      "/users/:id",
		Tag:       tag,
		Code:      code,
		Status:    http.StatusOK,
		Outcome:   domain.OutcomeHandled,
		CreatedAt: at,
	}
	if err := repo.CreateEvent(context.Background(), db, &ev); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// --- tests ---

func TestAdmin_Health(t *testing.T) {
	var hs HealthStatus
	body := get(t, newAdminEngine(t, nil), "/health", nil, &hs)
	if body["code"] != codes.Success.Code || hs.Status != "ok" {
		t.Fatalf("unexpected health: %v", body)
	}
}

func TestAdmin_CodesLocalised(t *testing.T) {
	r := newAdminEngine(t, nil)

	var en []codes.ErrorCode
	get(t, r, "/codes", nil, &en)
	if len(en) != len(codes.Registry) {
		t.Fatalf("got %d codes; want %d", len(en), len(codes.Registry))
	}
	if en[0] != codes.Registry[0] {
		t.Fatalf("first code = %+v", en[0])
	}

	var zh []codes.ErrorCode
	get(t, r, "/codes", map[string]string{"Accept-Language": "zh-CN"}, &zh)
	for i, ec := range zh {
		if ec.Code != codes.Registry[i].Code {
			t.Fatalf("order changed at %d: %s", i, ec.Code)
		}
		if ec.Code == codes.ServiceException.Code && ec.Message != codes.MessageIn(codes.ServiceException, language.SimplifiedChinese) {
			t.Fatalf("10003 not localised: %q", ec.Message)
		}
	}
}

func TestAdmin_HandlersWithAncestry(t *testing.T) {
	var infos []HandlerInfo
	get(t, newAdminEngine(t, nil), "/handlers", nil, &infos)

	byTag := map[string]HandlerInfo{}
	for _, hi := range infos {
		byTag[hi.Tag] = hi
	}
	connect, ok := byTag["connect"]
	if !ok {
		t.Fatalf("connect handler missing: %+v", infos)
	}
	want := []string{"connect", "socket", "io", "error"}
	if len(connect.Ancestry) != len(want) {
		t.Fatalf("ancestry = %v; want %v", connect.Ancestry, want)
	}
	for i := range want {
		if connect.Ancestry[i] != want[i] {
			t.Fatalf("ancestry = %v; want %v", connect.Ancestry, want)
		}
	}
	if _, ok := byTag["error"]; !ok {
		t.Fatalf("root fallback handler missing")
	}
}

func TestAdmin_ErrorsPaginatedAndFiltered(t *testing.T) {
	db := newJournalDB(t)
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seed(t, db, "connect", "10002", now.Add(-time.Duration(i)*time.Minute))
	}
	seed(t, db, "status", "10001", now.Add(-time.Hour))
	r := newAdminEngine(t, db)

	var page EventPage
	get(t, r, "/errors?page=1&page_size=2", nil, &page)
	if len(page.Events) != 2 || page.Pagination.Total != 6 || page.Pagination.TotalPages != 3 || !page.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", page.Pagination)
	}
	if page.Events[0].CreatedAt.Before(page.Events[1].CreatedAt) {
		t.Fatalf("events not newest first")
	}

	var filtered EventPage
	get(t, r, "/errors?tag=status", nil, &filtered)
	if filtered.Pagination.Total != 1 || filtered.Events[0].Code != "10001" {
		t.Fatalf("tag filter: %+v", filtered)
	}

	var byCode EventPage
	get(t, r, "/errors?code=10002&page=3&page_size=2", nil, &byCode)
	if byCode.Pagination.Total != 5 || len(byCode.Events) != 1 || byCode.Pagination.HasNext {
		t.Fatalf("code filter: %+v", byCode.Pagination)
	}
}

func TestAdmin_ErrorStats(t *testing.T) {
	db := newJournalDB(t)
	now := time.Now().UTC()
	seed(t, db, "connect", "10002", now.Add(-time.Minute))
	seed(t, db, "connect", "10002", now.Add(-2*time.Minute))
	seed(t, db, "timeout", "10002", now.Add(-3*time.Minute))
	seed(t, db, "timeout", "10002", now.Add(-48*time.Hour))
	r := newAdminEngine(t, db)

	var stats []repo.TagCount
	get(t, r, "/errors/stats", nil, &stats)
	if len(stats) != 2 || stats[0].Tag != "connect" || stats[0].Count != 2 || stats[1].Count != 1 {
		t.Fatalf("default window stats: %+v", stats)
	}

	get(t, r, "/errors/stats?since=72h", nil, &stats)
	if len(stats) != 2 || stats[0].Count != 2 || stats[1].Count != 2 {
		t.Fatalf("72h stats: %+v", stats)
	}

	for _, bad := range []string{"soon", "-1h"} {
		body := get(t, r, "/errors/stats?since="+bad, nil, nil)
		if body["code"] != codes.ParamError.Code {
			t.Fatalf("since=%s: %v", bad, body)
		}
	}
}

func TestAdmin_JournalDisabled(t *testing.T) {
	r := newAdminEngine(t, nil)
	for _, p := range []string{"/errors", "/errors/stats"} {
		body := get(t, r, p, nil, nil)
		if body["code"] != codes.ServiceNotExist.Code || body["message"] != "error journal is disabled" {
			t.Fatalf("GET %s: %v", p, body)
		}
	}
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=-3&page_size=500", 1, 100},
		{"page=4&page_size=7", 4, 7},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := newCtx(httptest.NewRequest(http.MethodGet, "/errors?"+tc.query, nil))
		p, ps := clampPagination(c)
		if p != tc.page || ps != tc.pageSize {
			t.Fatalf("%q: got (%d,%d); want (%d,%d)", tc.query, p, ps, tc.page, tc.pageSize)
		}
	}
}

func Test_queryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := newCtx(httptest.NewRequest(http.MethodGet, "/?a=42&b=-13&c=0012&d=x&e=999999999999999999999999", nil))
	cases := []struct {
		key  string
		def  int
		want int
	}{
		{"missing", 10, 10},
		{"a", 0, 42},
		{"b", 1, -13},
		{"c", 99, 12},
		{"d", 5, 5},
		{"e", -1, -1},
	}
	for _, tc := range cases {
		if got := queryInt(c, tc.key, tc.def); got != tc.want {
			t.Fatalf("queryInt(%q, %d) = %d; want %d", tc.key, tc.def, got, tc.want)
		}
	}
}
