package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/imdevedugame/backend-pwa/internal/domain"
)

const (
	codeForeignKeyViolation pq.ErrorCode = "23503"
	codeUniqueViolation     pq.ErrorCode = "23505"
	codeCheckViolation      pq.ErrorCode = "23514"
)

// Translate maps driver errors onto domain error kinds. entity names the row
// being read or written and ends up in the user-facing message.
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Errorf(domain.ErrNotFound, "%s not found", entity)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return domain.Errorf(domain.ErrConflict, "%s already exists", entity)
		case codeForeignKeyViolation:
			return domain.Errorf(domain.ErrNotFound, "%s references a missing record", entity)
		case codeCheckViolation:
			return domain.Errorf(domain.ErrValidation, "%s violates constraint %s", entity, pqErr.Constraint)
		}
	}

	return err
}
