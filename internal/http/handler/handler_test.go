package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tt2import/internal/model"
	"tt2import/internal/service"
	serviceMocks "tt2import/internal/service/mocks"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	var pingErr error
	app := fiber.New()
	app.Get("/health", HealthCheck(pingFunc(func(context.Context) error { return pingErr })))

	t.Run("healthy", func(t *testing.T) {
		pingErr = nil
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		pingErr = errors.New("db error")
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type part struct {
	field, name, content string
}

func multipartBody(t *testing.T, orgID string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if orgID != "" {
		require.NoError(t, w.WriteField("org_id", orgID))
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		fw.Write([]byte(p.content))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSubmitImport(t *testing.T) {
	mockSvc := new(serviceMocks.MockImportService)
	app := fiber.New()
	app.Post("/imports", SubmitImport(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody(t, "org-1",
			part{"files", "a.tt2", "NAMED_INSURED|John Smith\n"},
			part{"files", "b.tt2", ""},
		)

		job := &model.ImportJob{ID: "01HQ3K8Z8Y2N4V6T7R9P0M1XQB", OrgID: "org-1"}
		mockSvc.On("Submit", mock.Anything, mock.MatchedBy(func(req service.SubmitRequest) bool {
			if req.OrgID != "org-1" || req.CreatedBy != "user-7" || len(req.Files) != 2 {
				return false
			}
			b, err := io.ReadAll(req.Files[0].Body)
			return err == nil && string(b) == "NAMED_INSURED|John Smith\n" &&
				req.Files[0].Name == "a.tt2" && req.Files[1].Name == "b.tt2" && req.Files[1].Size == 0
		})).Return(job, nil).Once()
		mockSvc.On("Process", mock.Anything, job.ID).Return(&model.ImportResult{
			Status: model.JobPartial,
			Counts: model.ImportCounts{Quotes: 1},
			Errors: []model.ImportError{{Code: model.CodeParse, FileName: "b.tt2", Message: "tt2: empty content"}},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/imports", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(UserIDHeader, "user-7")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got importResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, job.ID, got.JobID)
		require.NotNil(t, got.Result)
		assert.False(t, got.Result.Success)
		assert.Equal(t, 1, got.Result.Counts.Quotes)
		require.Len(t, got.Result.Errors, 1)
		assert.Equal(t, "b.tt2", got.Result.Errors[0].FileName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing org", func(t *testing.T) {
		body, ct := multipartBody(t, "", part{"files", "a.tt2", "x"})
		req := httptest.NewRequest(http.MethodPost, "/imports", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ORG_REQUIRED", res.Error.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		errApp := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		errApp.Post("/imports", SubmitImport(mockSvc))

		req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(`{"org_id":"org-1"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := errApp.Test(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", res.Error.Code)
	})

	t.Run("no files", func(t *testing.T) {
		body, ct := multipartBody(t, "org-1", part{"attachment", "a.tt2", "x"})
		req := httptest.NewRequest(http.MethodPost, "/imports", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILES_REQUIRED", res.Error.Code)
	})

	t.Run("submit error", func(t *testing.T) {
		body, ct := multipartBody(t, "org-2", part{"files", "a.tt2", "x"})
		mockSvc.On("Submit", mock.Anything, mock.MatchedBy(func(req service.SubmitRequest) bool {
			return req.OrgID == "org-2"
		})).Return(nil, errors.New("bucket full")).Once()

		req := httptest.NewRequest(http.MethodPost, "/imports", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
	})

	t.Run("process error", func(t *testing.T) {
		body, ct := multipartBody(t, "org-3", part{"files", "a.tt2", "x"})
		mockSvc.On("Submit", mock.Anything, mock.MatchedBy(func(req service.SubmitRequest) bool {
			return req.OrgID == "org-3"
		})).Return(&model.ImportJob{ID: "job-3"}, nil).Once()
		mockSvc.On("Process", mock.Anything, "job-3").Return(nil, service.ErrJobFinished).Once()

		req := httptest.NewRequest(http.MethodPost, "/imports", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "PROCESSING_FAILED", res.Error.Code)
	})
}

func TestGetImport(t *testing.T) {
	mockSvc := new(serviceMocks.MockImportService)
	app := fiber.New()
	app.Get("/imports/:id", GetImport(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := ulid.Make().String()
		job := &model.ImportJob{ID: id, OrgID: "org-1", Status: model.JobSuccess, Counts: model.ImportCounts{Quotes: 3}}
		mockSvc.On("Get", mock.Anything, id).Return(job, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/imports/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.ImportJob
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, model.JobSuccess, result.Status)
		assert.Equal(t, 3, result.Counts.Quotes)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := ulid.Make().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/imports/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/imports/not-a-ulid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := ulid.Make().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/imports/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "routing_probe_total", Help: "probe"}))
	RegisterRoutes(app, pingFunc(func(context.Context) error { return nil }), new(serviceMocks.MockImportService), reg)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		errApp := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		errApp.Get("/slow", func(c *fiber.Ctx) error {
			return fmt.Errorf("process: %w", context.DeadlineExceeded)
		})

		resp, _ := errApp.Test(httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "TIMEOUT", res.Error.Code)
	})

	t.Run("payload too large names the file cap", func(t *testing.T) {
		errApp := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		errApp.Post("/big", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })

		resp, _ := errApp.Test(httptest.NewRequest(http.MethodPost, "/big", nil))

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", res.Error.Code)
		assert.Contains(t, res.Error.Message, "100 MiB")
	})

	t.Run("metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.True(t, strings.Contains(string(b), "routing_probe_total"))
	})
}
