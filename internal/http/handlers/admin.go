package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/codes"
	"github.com/tbourn/go-gateway-errors/internal/dispatch"
	"github.com/tbourn/go-gateway-errors/internal/domain"
	"github.com/tbourn/go-gateway-errors/internal/failure"
	"github.com/tbourn/go-gateway-errors/internal/repo"
)

// defaultStatsWindow is the look-back of ErrorStats when since is absent.
const defaultStatsWindow = 24 * time.Hour

// Admin serves read-only introspection of the error pipeline.
type Admin struct {
	reg    *dispatch.Registry
	db     *gorm.DB // nil when the journal is disabled
	locale language.Tag
}

// NewAdmin returns admin handlers over reg and the journal db (may be nil).
func NewAdmin(reg *dispatch.Registry, db *gorm.DB, locale language.Tag) *Admin {
	return &Admin{reg: reg, db: db, locale: locale}
}

//
// DTOs
//

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status string `json:"status" example:"ok"`
}

// HandlerInfo describes one registered error handler.
type HandlerInfo struct {
	Tag      string   `json:"tag"                example:"connect"`
	Name     string   `json:"name"               example:"connect"`
	Status   int      `json:"status,omitempty"   example:"0"`
	Ancestry []string `json:"ancestry"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// EventPage wraps a page of journal events and pagination information.
type EventPage struct {
	Events     []domain.ErrorEvent `json:"events"`
	Pagination Pagination          `json:"pagination"`
}

//
// Helpers
//

// queryInt reads an integer query parameter, returning def when it is
// absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	if n, err := strconv.Atoi(c.Query(key)); err == nil {
		return n
	}
	return def
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = queryInt(c, "page", defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(c, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// journal returns the journal db or fails the request when it is disabled.
func (h *Admin) journal(c *gin.Context) (*gorm.DB, bool) {
	if h.db == nil {
		fail(c, failure.Newf(codes.ServiceNotExist.Code, "error journal is disabled"))
		return nil, false
	}
	return h.db, true
}

//
// Handlers
//

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  result.Result{data=handlers.HealthStatus}
// @Router      /health [get]
func (h *Admin) Health(c *gin.Context) {
	ok(c, HealthStatus{Status: "ok"})
}

// Codes godoc
// @ID          listCodes
// @Summary     List the error code catalog
// @Description Returns every code with its message in the language negotiated from Accept-Language.
// @Tags        Admin
// @Produce     json
// @Param       Accept-Language  header  string  false  "Preferred language"  example(zh-CN)
// @Success     200  {object}  result.Result{data=[]codes.ErrorCode}
// @Router      /_gateway/codes [get]
func (h *Admin) Codes(c *gin.Context) {
	lang := codes.Match(c.GetHeader("Accept-Language"), h.locale)
	out := make([]codes.ErrorCode, 0, len(codes.Registry))
	for _, ec := range codes.Registry {
		out = append(out, codes.ErrorCode{Code: ec.Code, Message: codes.MessageIn(ec, lang)})
	}
	ok(c, out)
}

// Handlers godoc
// @ID          listHandlers
// @Summary     List registered error handlers
// @Description Returns handlers in registration order with the ancestry chain of their tag.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  result.Result{data=[]handlers.HandlerInfo}
// @Router      /_gateway/handlers [get]
func (h *Admin) Handlers(c *gin.Context) {
	tax := h.reg.Taxonomy()
	entries := h.reg.Entries()
	out := make([]HandlerInfo, 0, len(entries))
	for _, e := range entries {
		chain := tax.Ancestry(e.Tag)
		anc := make([]string, 0, len(chain))
		for _, t := range chain {
			anc = append(anc, string(t))
		}
		out = append(out, HandlerInfo{Tag: string(e.Tag), Name: e.Name, Status: e.Status, Ancestry: anc})
	}
	ok(c, out)
}

// Errors godoc
// @ID          listErrors
// @Summary     List journaled failures (paginated)
// @Description Returns rendered failures, newest first. Requires the error journal.
// @Tags        Admin
// @Produce     json
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       tag        query  string  false  "Filter by taxonomy tag"  example(connect)
// @Param       code       query  string  false  "Filter by envelope code" example(10002)
// @Success     200  {object}  result.Result{data=handlers.EventPage}
// @Failure     200  {object}  result.Result  "10001 when the journal is disabled"
// @Router      /_gateway/errors [get]
func (h *Admin) Errors(c *gin.Context) {
	db, enabled := h.journal(c)
	if !enabled {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	f := repo.EventFilter{Tag: c.Query("tag"), Code: c.Query("code")}

	total, err := repo.CountEvents(ctx, db, f)
	if err != nil {
		fail(c, failure.Wrap(codes.ServiceException, err))
		return
	}
	events, err := repo.ListEventsPage(ctx, db, f, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, failure.Wrap(codes.ServiceException, err))
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, EventPage{
		Events: events,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ErrorStats godoc
// @ID          errorStats
// @Summary     Journaled failures grouped by tag
// @Tags        Admin
// @Produce     json
// @Param       since  query  string  false  "Look-back window as a Go duration"  default(24h)
// @Success     200  {object}  result.Result{data=[]repo.TagCount}
// @Failure     200  {object}  result.Result  "30001 on a malformed window"
// @Router      /_gateway/errors/stats [get]
func (h *Admin) ErrorStats(c *gin.Context) {
	window := defaultStatsWindow
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			fail(c, failure.Newf(codes.ParamError.Code, "since must be a positive duration"))
			return
		}
		window = d
	}
	db, enabled := h.journal(c)
	if !enabled {
		return
	}
	stats, err := repo.EventStats(c.Request.Context(), db, time.Now().UTC().Add(-window))
	if err != nil {
		fail(c, failure.Wrap(codes.ServiceException, err))
		return
	}
	ok(c, stats)
}
