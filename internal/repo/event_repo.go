package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/domain"
)

// EventFilter narrows journal queries. Zero values match everything.
type EventFilter struct {
	Tag  string
	Code string
}

func (f EventFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Tag != "" {
		q = q.Where("tag = ?", f.Tag)
	}
	if f.Code != "" {
		q = q.Where("code = ?", f.Code)
	}
	return q
}

// CreateEvent inserts ev. A missing ID is filled with a UUID and a zero
// CreatedAt with the current UTC time.
func CreateEvent(ctx context.Context, db *gorm.DB, ev *domain.ErrorEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(ev).Error
}

// CreateEvents inserts a batch in one transaction.
func CreateEvents(ctx context.Context, db *gorm.DB, evs []domain.ErrorEvent) error {
	if len(evs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range evs {
		if evs[i].ID == "" {
			evs[i].ID = uuid.NewString()
		}
		if evs[i].CreatedAt.IsZero() {
			evs[i].CreatedAt = now
		}
	}
	return db.WithContext(ctx).Create(&evs).Error
}

// ListEventsPage returns events matching f, newest first.
//
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListEventsPage(ctx context.Context, db *gorm.DB, f EventFilter, offset, limit int) ([]domain.ErrorEvent, error) {
	var out []domain.ErrorEvent
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountEvents returns the number of events matching f.
func CountEvents(ctx context.Context, db *gorm.DB, f EventFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.ErrorEvent{})).Count(&total).Error
	return total, err
}

// PruneBefore deletes events created before cutoff and reports how many
// rows were removed.
func PruneBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.ErrorEvent{})
	return res.RowsAffected, res.Error
}
