package handlers

import (
	"errors"
	"net/http"

	"github.com/hubauth/jwtauthenticator/repositories"
	"github.com/hubauth/jwtauthenticator/services"
	"github.com/hubauth/jwtauthenticator/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, err.Error())

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, err.Error(), details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, err.Error())

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, err.Error())

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// toServiceError lifts a repository error into a domain error, using
// notFound for a missing record.
func toServiceError(err error, notFound *services.DomainError) error {
	if services.GetErrorType(err) != "" {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return services.WrapError(notFound, err)
	}
	return services.WrapError(services.ErrDatabaseError, err)
}
