package custom_error

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error returned by a service to the response status.
func HTTPStatus(err error) int {
	var (
		notFound     *NotFoundError
		insufficient *InsufficientStockError
		unavailable  *ToolUnavailableError
		checkedOut   *ToolCheckedOutError
		validation   *ValidationError
		transition   *InvalidTransitionError
		bulk         *BulkError
		unique       *UniqueViolationError
		foreignKey   *ForeignKeyViolationError
		check        *CheckViolationError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &insufficient),
		errors.As(err, &unavailable),
		errors.As(err, &checkedOut),
		errors.As(err, &transition),
		errors.As(err, &bulk),
		errors.As(err, &unique),
		errors.As(err, &foreignKey),
		errors.As(err, &check):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Details returns the structured part of err worth sending to a client, if any.
func Details(err error) interface{} {
	var (
		insufficient *InsufficientStockError
		validation   *ValidationError
		transition   *InvalidTransitionError
		bulk         *BulkError
	)

	switch {
	case errors.As(err, &insufficient):
		return insufficient
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &transition):
		return transition
	case errors.As(err, &bulk):
		return bulk.Lines
	default:
		return nil
	}
}
