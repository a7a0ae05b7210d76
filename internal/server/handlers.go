// Package server exposes the claim pipeline over HTTP: extraction,
// validation, claim form generation and email dispatch, plus a liveness
// probe. Response envelopes are plain JSON objects; failures carry a
// single human-readable "error" string.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/entity"
	"github.com/yuki-ame/MediClaim.AI/internal/extract"
	"github.com/yuki-ame/MediClaim.AI/internal/mailer"
)

// Extractor is the extraction stage as the handlers see it.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType, filename string) (extract.Result, error)
}

// Validator is the adjudication stage.
type Validator interface {
	Validate(ctx context.Context, record entity.BillingRecord) ([]entity.AdjudicationResult, error)
}

// FormAssembler renders a record into claim form text.
type FormAssembler interface {
	Assemble(ctx context.Context, record entity.BillingRecord) (string, error)
}

type Handler struct {
	extractor Extractor
	validator Validator
	assembler FormAssembler
	mailer    mailer.Mailer
	logger    *slog.Logger
}

func NewHandler(extractor Extractor, validator Validator, assembler FormAssembler, m mailer.Mailer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		extractor: extractor,
		validator: validator,
		assembler: assembler,
		mailer:    m,
		logger:    logger,
	}
}

// RegisterRoutes registers the claim pipeline endpoints.
//
//	GET  /                     - liveness probe
//	POST /extract              - multipart upload -> raw extracted data
//	POST /validate             - billing record -> adjudication results
//	POST /generate_claim_form  - billing record -> claim form text
//	POST /email_claim_form     - send assembled form to a recipient
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.POST("/extract", h.Extract)
	e.POST("/validate", h.Validate)
	e.POST("/generate_claim_form", h.GenerateClaimForm)
	e.POST("/email_claim_form", h.EmailClaimForm)
}

// Root handles GET /.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Medical Billing & Claims Agent Running",
	})
}

// Extract handles POST /extract. It accepts a multipart file upload and
// returns the raw extraction output; clients sanitize and re-submit it to
// /validate.
func (h *Handler) Extract(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errEnvelope("file field is required"))
	}

	f, err := fh.Open()
	if err != nil {
		return h.fail(c, common.WrapError(err, "open upload"))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return h.fail(c, common.WrapError(err, "read upload"))
	}

	mimeType := c.FormValue("mime_type")
	if mimeType == "" {
		mimeType = fh.Header.Get("Content-Type")
	}

	res, err := h.extractor.Extract(c.Request().Context(), data, mimeType, fh.Filename)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"extracted_data": res.RawText})
}

// Validate handles POST /validate.
func (h *Handler) Validate(c echo.Context) error {
	var record entity.BillingRecord
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, errEnvelope("request body must be a JSON billing record"))
	}

	results, err := h.validator.Validate(c.Request().Context(), record)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

// GenerateClaimForm handles POST /generate_claim_form.
func (h *Handler) GenerateClaimForm(c echo.Context) error {
	var record entity.BillingRecord
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, errEnvelope("request body must be a JSON billing record"))
	}

	text, err := h.assembler.Assemble(c.Request().Context(), record)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"claim_form_text": text})
}

type emailRequest struct {
	ToEmail       string `json:"to_email"`
	ClaimFormText string `json:"claim_form_text"`
}

// EmailClaimForm handles POST /email_claim_form.
func (h *Handler) EmailClaimForm(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errEnvelope("invalid request body"))
	}
	if strings.TrimSpace(req.ToEmail) == "" {
		return c.JSON(http.StatusBadRequest, errEnvelope("to_email is required"))
	}
	if strings.TrimSpace(req.ClaimFormText) == "" {
		return c.JSON(http.StatusBadRequest, errEnvelope("claim_form_text is required"))
	}

	if err := h.mailer.Send(c.Request().Context(), req.ToEmail, req.ClaimFormText); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent", "to": req.ToEmail})
}

// fail maps taxonomy errors to 400 and everything else to 500. The message
// is always human-readable; internal diagnostics stay in the logs.
func (h *Handler) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if common.IsClientError(err) {
		status = http.StatusBadRequest
	}

	msg := common.UserMessage(err)
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	h.logger.Warn("request.failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"status", status,
		"error", err,
	)
	return c.JSON(status, errEnvelope(msg))
}

func errEnvelope(msg string) map[string]string {
	return map[string]string{"error": msg}
}
