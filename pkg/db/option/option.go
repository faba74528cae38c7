package option

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func OrderBy(column string, desc bool) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	})
}

func Where(query any, args ...any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// ForUpdate adds a row lock. SQLite has no row locks and serialises
// writers on its own, so the clause is skipped there.
func ForUpdate() QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			return db
		}
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	})
}
