// Package pagination parses page/size query params and applies them to gorm
// queries, producing the envelope metadata the showcase listing returns.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	defaultSize = 20
	maxSize     = 100
)

// Query is a validated page request. Page is 1-based.
type Query struct {
	Page int
	Size int
}

// FromContext reads ?page= and ?size=, clamping anything unusable to sane
// values instead of erroring.
func FromContext(c *gin.Context) Query {
	q := Query{Page: 1, Size: defaultSize}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 {
		q.Size = v
	}
	if q.Size > maxSize {
		q.Size = maxSize
	}
	return q
}

// Paginate counts the filtered set, fetches the requested page into dest and
// returns the metadata. The caller's ordering on db is preserved.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	if err := db.Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}
