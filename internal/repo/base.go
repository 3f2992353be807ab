package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Base is embedded by the storefront repositories. It carries the
// connection or transaction the repository is bound to.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// ForUpdate adds a row lock to q on postgres. SQLite serializes writers on
// its own and has no FOR UPDATE.
func (b Base) ForUpdate(q *gorm.DB) *gorm.DB {
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// LookupError maps a single-row lookup failure to NotFound or Dependency.
func LookupError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
