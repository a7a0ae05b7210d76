package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/entity"
	"github.com/yuki-ame/MediClaim.AI/internal/extract"
)

type stubExtractor struct {
	res extract.Result
	err error
}

func (s stubExtractor) Extract(context.Context, []byte, string, string) (extract.Result, error) {
	return s.res, s.err
}

type stubValidator struct {
	results []entity.AdjudicationResult
	err     error
}

func (s stubValidator) Validate(context.Context, entity.BillingRecord) ([]entity.AdjudicationResult, error) {
	return s.results, s.err
}

type stubAssembler struct {
	text string
	err  error
}

func (s stubAssembler) Assemble(context.Context, entity.BillingRecord) (string, error) {
	return s.text, s.err
}

type stubMailer struct {
	err  error
	to   string
	body string
}

func (s *stubMailer) Send(_ context.Context, recipient, body string) error {
	s.to = recipient
	s.body = body
	return s.err
}

func newTestServer(ex Extractor, v Validator, a FormAssembler, m *stubMailer) http.Handler {
	if m == nil {
		m = &stubMailer{}
	}
	h := NewHandler(ex, v, a, m, nil)
	return New(Config{}, h, nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return m
}

func TestRoot(t *testing.T) {
	srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if m := decodeBody(t, rec); m["message"] == "" {
		t.Error("liveness message missing")
	}
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.WriteField("mime_type", "text/plain"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestExtractEndpoint(t *testing.T) {
	raw := `{"patient_name": "John"}`
	srv := newTestServer(stubExtractor{res: extract.Result{RawText: raw, Record: &entity.BillingRecord{}}},
		stubValidator{}, stubAssembler{}, nil)

	body, ctype := multipartUpload(t, "file", "bill.txt", "some bill")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set(echoHeaderContentType, ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if m := decodeBody(t, rec); m["extracted_data"] != raw {
		t.Errorf("extracted_data = %v, want raw model output", m["extracted_data"])
	}
}

const echoHeaderContentType = "Content-Type"

func TestExtractEndpointMissingFile(t *testing.T) {
	srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(""))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExtractEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"no readable text", common.ErrNoReadableText, http.StatusBadRequest, common.MsgNoReadableText},
		{"no useful data", common.ErrNoUsefulData, http.StatusBadRequest, common.MsgNoUsefulData},
		{"malformed", common.NewAppError("MALFORMED_EXTRACTION", common.MsgMalformedExtraction, common.ErrMalformedExtraction), http.StatusBadRequest, common.MsgMalformedExtraction},
		{"internal", errors.New("kaput"), http.StatusInternalServerError, "kaput"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(stubExtractor{err: tt.err}, stubValidator{}, stubAssembler{}, nil)

			body, ctype := multipartUpload(t, "file", "bill.txt", "x")
			req := httptest.NewRequest(http.MethodPost, "/extract", body)
			req.Header.Set(echoHeaderContentType, ctype)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if m := decodeBody(t, rec); m["error"] != tt.wantMsg {
				t.Errorf("error = %v, want %q", m["error"], tt.wantMsg)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	results := []entity.AdjudicationResult{
		{
			ServiceCode: "A1",
			Status:      entity.StatusApproved,
			ClaimForm: &entity.ClaimFormPayload{
				PatientName: "John", Date: "2025-01-15", ServiceCode: "A1", Amount: 80,
			},
		},
	}
	srv := newTestServer(stubExtractor{}, stubValidator{results: results}, stubAssembler{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/validate",
		strings.NewReader(`{"patient_name": "John", "services": [{"service_code": "A1", "amount": 80}]}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	m := decodeBody(t, rec)
	arr, ok := m["results"].([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("results = %v", m["results"])
	}
	first := arr[0].(map[string]any)
	if first["status"] != "approved" {
		t.Errorf("status = %v", first["status"])
	}
	if _, hasLetter := first["appeal_letter"]; hasLetter {
		t.Error("approved result must omit appeal_letter")
	}
}

func TestValidateEndpointErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"no services", common.ErrNoValidServices, common.MsgNoValidServices},
		{"no results", common.ErrNoValidResults, common.MsgNoValidResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(stubExtractor{}, stubValidator{err: tt.err}, stubAssembler{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{}`))
			req.Header.Set(echoHeaderContentType, "application/json")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if m := decodeBody(t, rec); m["error"] != tt.wantMsg {
				t.Errorf("error = %v, want %q", m["error"], tt.wantMsg)
			}
		})
	}
}

func TestGenerateClaimFormEndpoint(t *testing.T) {
	srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{text: "CLAIM FORM"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/generate_claim_form",
		strings.NewReader(`{"patient_name": "John"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if m := decodeBody(t, rec); m["claim_form_text"] != "CLAIM FORM" {
		t.Errorf("claim_form_text = %v", m["claim_form_text"])
	}
}

func TestEmailClaimFormEndpoint(t *testing.T) {
	m := &stubMailer{}
	srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{}, m)

	req := httptest.NewRequest(http.MethodPost, "/email_claim_form",
		strings.NewReader(`{"to_email": "tpa@example.com", "claim_form_text": "CLAIM FORM"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "sent" || body["to"] != "tpa@example.com" {
		t.Errorf("body = %v", body)
	}
	if m.to != "tpa@example.com" || m.body != "CLAIM FORM" {
		t.Errorf("mailer received %q/%q", m.to, m.body)
	}
}

func TestEmailClaimFormEndpointValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing recipient", `{"claim_form_text": "x"}`},
		{"missing form text", `{"to_email": "a@b.c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/email_claim_form", strings.NewReader(tt.body))
			req.Header.Set(echoHeaderContentType, "application/json")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestEmailClaimFormDispatchError(t *testing.T) {
	m := &stubMailer{err: common.NewAppError("DISPATCH_ERROR", "connection refused", common.ErrDispatch)}
	srv := newTestServer(stubExtractor{}, stubValidator{}, stubAssembler{}, m)

	req := httptest.NewRequest(http.MethodPost, "/email_claim_form",
		strings.NewReader(`{"to_email": "a@b.c", "claim_form_text": "x"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "connection refused" {
		t.Errorf("error = %v, want diagnostic message", body["error"])
	}
}
