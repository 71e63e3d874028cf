package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/domain"
)

// TagCount aggregates journal events for one taxonomy tag.
type TagCount struct {
	Tag    string    `json:"tag"`
	Count  int64     `json:"count"`
	LastAt time.Time `json:"last_at"`
}

// EventStats groups events created at or after since by tag, busiest first.
//
// LastAt is read per tag with a second query; SQLite returns MAX() over a
// datetime column as TEXT, which gorm cannot scan into time.Time.
func EventStats(ctx context.Context, db *gorm.DB, since time.Time) ([]TagCount, error) {
	var rows []struct {
		Tag   string
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&domain.ErrorEvent{}).
		Select("tag, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("tag").
		Order("count desc").
		Order("tag").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]TagCount, 0, len(rows))
	for _, r := range rows {
		var last struct{ CreatedAt time.Time }
		err := db.WithContext(ctx).
			Model(&domain.ErrorEvent{}).
			Select("created_at").
			Where("tag = ? AND created_at >= ?", r.Tag, since).
			Order("created_at desc").
			Limit(1).
			Scan(&last).Error
		if err != nil {
			return nil, err
		}
		out = append(out, TagCount{Tag: r.Tag, Count: r.Count, LastAt: last.CreatedAt})
	}
	return out, nil
}
