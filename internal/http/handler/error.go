package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docgateway/internal/admission"
	"docgateway/internal/http/middleware"
	"docgateway/internal/remote"
	"docgateway/internal/service"
	"docgateway/internal/storage"
)

// errInvalidBody is returned when the ask payload cannot be decoded.
var errInvalidBody = errors.New("invalid request body")

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "FILE_REQUIRED", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		Success:   false,
		Message:   message,
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type classified struct {
	status  int
	code    string
	message string
}

// classify maps an error returned by a handler to its HTTP representation.
func classify(err error) classified {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusBadRequest:
			return classified{fe.Code, "BAD_REQUEST", "bad request"}
		case fiber.StatusNotFound:
			return classified{fe.Code, "NOT_FOUND", "resource not found"}
		case fiber.StatusMethodNotAllowed:
			return classified{fe.Code, "METHOD_NOT_ALLOWED", "method not allowed"}
		case fiber.StatusRequestEntityTooLarge:
			return classified{fe.Code, "PAYLOAD_TOO_LARGE", "request body too large"}
		case fiber.StatusUnsupportedMediaType:
			return classified{fe.Code, "UNSUPPORTED_MEDIA_TYPE", "unsupported content type"}
		default:
			return classified{fe.Code, "INTERNAL_ERROR", "internal server error"}
		}
	}

	var re *remote.Error
	switch {
	case errors.Is(err, service.ErrMissingFile):
		return classified{fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"}
	case errors.Is(err, admission.ErrUnsupportedFileType):
		return classified{fiber.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "Unsupported file type"}
	case errors.Is(err, admission.ErrPayloadTooLarge):
		return classified{fiber.StatusBadRequest, "PAYLOAD_TOO_LARGE", "file exceeds the maximum upload size"}
	case errors.Is(err, service.ErrMissingFields):
		return classified{fiber.StatusBadRequest, "MISSING_FIELDS", "document and question are required"}
	case errors.Is(err, storage.ErrInvalidName):
		return classified{fiber.StatusBadRequest, "INVALID_DOCUMENT_REFERENCE", "invalid document reference"}
	case errors.Is(err, errInvalidBody):
		return classified{fiber.StatusBadRequest, "INVALID_BODY", "invalid request body"}
	case errors.Is(err, service.ErrDocumentNotFound):
		return classified{fiber.StatusNotFound, "NOT_FOUND", "document not found"}
	case errors.As(err, &re):
		if re.Op == remote.OpAskDocument {
			return classified{fiber.StatusInternalServerError, "PROCESSING_FAILED", "Failed to get answer"}
		}
		return classified{fiber.StatusInternalServerError, "PROCESSING_FAILED", "Failed to process document"}
	default:
		return classified{fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"}
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Server-side failures are logged with their cause; the client only sees the safe message.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		res := classify(err)
		if res.status >= fiber.StatusInternalServerError {
			log.Error("request_failed",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.String("path", c.Path()),
				zap.String("code", res.code),
				zap.Error(err),
			)
		}
		return writeError(c, res.status, res.code, res.message)
	}
}
