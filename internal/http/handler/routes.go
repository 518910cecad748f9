package handler

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"docgateway/internal/service"
	"docgateway/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, store storage.TransientStore, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(store))
	app.Get("/healthz", LivenessProbe())

	v1 := app.Group("/api/v1")
	v1.Post("/documents", IngestDocument(docSvc))
	v1.Post("/documents/ask", AskDocument(docSvc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Reports whether the transient store is usable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(store storage.TransientStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 as long as the process serves HTTP.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// IngestDocument godoc
// @Summary Upload a document for processing
// @Description Stages the upload and returns the remote processing result merged with the stored file identity.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param document formData file true "Document (PDF, Word, spreadsheet or image, max 10 MiB)"
// @Success 200 {object} successPayload
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/v1/documents [post]
func IngestDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := formFile(c, "document", "file")
		if err != nil {
			return service.ErrMissingFile
		}

		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := docSvc.Ingest(c.UserContext(), &service.Upload{
			Reader:       f,
			OriginalName: fh.Filename,
			ContentType:  ct,
			Size:         fh.Size,
		})
		if err != nil {
			return err
		}
		return writeSuccess(c, "Document processed successfully", res)
	}
}

// AskDocument godoc
// @Summary Ask a question about a document
// @Description Forwards the question with either a previously returned filename or raw document text, depending on deployment.
// @Tags documents
// @Accept json
// @Produce json
// @Param request body service.AskRequest true "Question"
// @Success 200 {object} successPayload
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/v1/documents/ask [post]
func AskDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.AskRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errInvalidBody
			}
		}

		ans, err := docSvc.Ask(c.UserContext(), req)
		if err != nil {
			return err
		}
		return writeSuccess(c, "Question answered successfully", ans)
	}
}

// formFile returns the first multipart file found under one of fields.
func formFile(c *fiber.Ctx, fields ...string) (*multipart.FileHeader, error) {
	var err error
	for _, name := range fields {
		var fh *multipart.FileHeader
		if fh, err = c.FormFile(name); err == nil {
			return fh, nil
		}
	}
	return nil, err
}
