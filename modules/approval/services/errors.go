package services

import (
	"net/http"

	"github.com/iota-uz/docflow/pkg/serrors"
)

// Error codes for the workflow engine. All are terminal: the engine never
// retries, the caller decides what to do.
const (
	CodeNotFound        = "APPROVAL_NOT_FOUND"
	CodeForbidden       = "APPROVAL_FORBIDDEN"
	CodeInvalidState    = "APPROVAL_INVALID_STATE"
	CodeInvalidWorkflow = "APPROVAL_INVALID_WORKFLOW"
	CodeInvalidAction   = "APPROVAL_INVALID_ACTION"
	CodeOutOfOrder      = "APPROVAL_OUT_OF_ORDER"
	CodeEmptyWorkflow   = "APPROVAL_EMPTY_WORKFLOW"
	CodeInvalidBody     = "APPROVAL_INVALID_BODY"
	CodeInternal        = "APPROVAL_INTERNAL"
)

func errNotFound(message string) *serrors.Error {
	return serrors.New(http.StatusNotFound, CodeNotFound, message)
}

func errForbidden(message string) *serrors.Error {
	return serrors.New(http.StatusForbidden, CodeForbidden, message)
}

func errInvalidState(message string) *serrors.Error {
	return serrors.New(http.StatusConflict, CodeInvalidState, message)
}

func errInvalidWorkflow(message string) *serrors.Error {
	return serrors.New(http.StatusUnprocessableEntity, CodeInvalidWorkflow, message)
}

func errInvalidAction(message string) *serrors.Error {
	return serrors.New(http.StatusUnprocessableEntity, CodeInvalidAction, message)
}

func errOutOfOrder(message string) *serrors.Error {
	return serrors.New(http.StatusConflict, CodeOutOfOrder, message)
}

func errEmptyWorkflow(message string) *serrors.Error {
	return serrors.New(http.StatusUnprocessableEntity, CodeEmptyWorkflow, message)
}

func errInvalidBody(message string) *serrors.Error {
	return serrors.New(http.StatusBadRequest, CodeInvalidBody, message)
}
