package services

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/docflow/modules/approval/infrastructure/persistence"
	"github.com/iota-uz/docflow/pkg/serrors"
)

// mapRepoError folds repository failures into service errors so controllers
// only ever see *serrors.Error.
func mapRepoError(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	var svcErr *serrors.Error
	if errors.As(err, &svcErr) {
		return err
	}
	if errors.Is(err, persistence.ErrRequestNotFound) ||
		errors.Is(err, persistence.ErrStageNotFound) ||
		errors.Is(err, pgx.ErrNoRows) {
		return errNotFound(notFoundMessage)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return serrors.Wrap(http.StatusConflict, CodeInvalidState, "conflicting write", err)
		case "23503": // foreign_key_violation
			return serrors.Wrap(http.StatusUnprocessableEntity, CodeInvalidWorkflow, "referenced row does not exist", err)
		}
	}
	return serrors.Wrap(http.StatusInternalServerError, CodeInternal, "internal error", err)
}
