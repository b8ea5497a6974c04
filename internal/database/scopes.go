package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/pandora-pm/internal/utils"
)

// Paginate limits a query to one page. A zero limit leaves the query
// unbounded.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders rows of table by creation time, newest first, breaking
// ties on the time-ordered primary key.
func NewestFirst(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}

// OldestFirst is the append order of table.
func OldestFirst(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at ASC").Order(table + ".id ASC")
	}
}
