package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"

	"tt2import/internal/model"
	"tt2import/internal/service"
)

const (
	// UserIDHeader carries the creator identity. It is trusted as-is.
	UserIDHeader = "X-User-ID"
	formFiles    = "files"
	formOrgID    = "org_id"
)

// importResponse is returned by POST /imports.
type importResponse struct {
	JobID  string              `json:"job_id"`
	Result *model.ImportResult `json:"result"`
}

// SubmitImport stores the uploaded TT2 files as a new job and processes it before responding.
//
// @Summary     Import TurboRater TT2 files
// @Tags        imports
// @Accept      multipart/form-data
// @Produce     json
// @Param       org_id    formData string true  "Organization id"
// @Param       files     formData file   true  "TT2 files (repeatable)"
// @Param       X-User-ID header   string false "Creator identity"
// @Success     201 {object} importResponse
// @Failure     400 {object} errorPayload
// @Failure     415 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /imports [post]
func SubmitImport(svc service.ImportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			return fiber.ErrUnsupportedMediaType
		}

		orgID := c.FormValue(formOrgID)
		if orgID == "" {
			return writeError(c, fiber.StatusBadRequest, "ORG_REQUIRED", "org_id is required")
		}

		form, err := c.MultipartForm()
		if err != nil || len(form.File[formFiles]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "at least one file is required")
		}

		headers := form.File[formFiles]
		files := make([]service.UploadFile, 0, len(headers))
		opened := make([]multipart.File, 0, len(headers))
		defer func() {
			for _, f := range opened {
				f.Close()
			}
		}()

		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			opened = append(opened, f)

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			files = append(files, service.UploadFile{
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: ct,
				Body:        f,
			})
		}

		job, err := svc.Submit(c.UserContext(), service.SubmitRequest{
			OrgID:     orgID,
			CreatedBy: c.Get(UserIDHeader),
			Files:     files,
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		res, err := svc.Process(c.UserContext(), job.ID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "PROCESSING_FAILED", "import job could not be completed")
		}
		return c.Status(fiber.StatusCreated).JSON(importResponse{JobID: job.ID, Result: res})
	}
}

// GetImport returns an import job with its status, counts and errors.
//
// @Summary     Get import job
// @Tags        imports
// @Produce     json
// @Param       id  path     string true "Job id (ULID)"
// @Success     200 {object} model.ImportJob
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Router      /imports/{id} [get]
func GetImport(svc service.ImportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := ulid.ParseStrict(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "import job not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(job)
	}
}
