// Package domain defines the persistence models of the gateway. They are
// mapped with GORM and back the error journal.
package domain

import "time"

// Dispatch outcomes stored in ErrorEvent.Outcome.
const (
	OutcomeHandled       = "handled"
	OutcomeHandlerFailed = "handler_failed"
	OutcomeUnhandled     = "unhandled"
)

// ErrorEvent is one failure the gateway rendered through its error boundary.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RequestID: correlation ID echoed to the client in X-Request-ID.
//   - Method / Path: request line; Path is the matched route or raw path.
//   - Tag: taxonomy tag the error resolved to (e.g. "connect").
//   - Handler: name of the handler that produced the envelope, if any.
//   - Code / Message: envelope returned to the client (before localisation).
//   - Status: HTTP status written.
//   - Outcome: handled | handler_failed | unhandled.
//   - Detail: full server-side error text; never sent to clients.
//   - CreatedAt: UTC time of the failure.
type ErrorEvent struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RequestID string    `json:"request_id" gorm:"type:varchar(64);index"`
	Method    string    `json:"method"     gorm:"type:varchar(16);not null"`
	Path      string    `json:"path"       gorm:"type:varchar(512);not null"`
	Tag       string    `json:"tag"        gorm:"type:varchar(64);not null;index:idx_event_tag_time,priority:1"`
	Handler   string    `json:"handler"    gorm:"type:varchar(128)"`
	Code      string    `json:"code"       gorm:"type:varchar(16);not null;index"`
	Message   string    `json:"message"    gorm:"type:varchar(512)"`
	Status    int       `json:"status"     gorm:"not null"`
	Outcome   string    `json:"outcome"    gorm:"type:varchar(16);not null;check:outcome IN ('handled','handler_failed','unhandled')"`
	Detail    string    `json:"detail"     gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index;index:idx_event_tag_time,priority:2"`
}

// TableName returns the database table name for ErrorEvent.
func (ErrorEvent) TableName() string { return "error_events" }
