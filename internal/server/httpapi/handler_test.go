package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/services/slips"
)

const slipText = `株式会社サンプル商事
社員番号：A12345
2025年1月25日支給
基本給：300,000
支給合計：300,000
健康保険料：12,500
厚生年金保険料：25,000
雇用保険料：1,500
所得税：8,500
住民税：12,000
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type textBackend struct{}

func (textBackend) Name() string { return "stub" }

func (textBackend) Extract(context.Context, []byte) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: slipText, Method: "stub"}, nil
}

func newTestServer(t *testing.T, health func(context.Context) error) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "api.db"), logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	files := ingest.NewFSIngestor(t.TempDir(), repository.NewFileRepository(store, logger), logger)
	p := pipeline.New(pipeline.Config{}, nil, logger, textBackend{})
	svc := slips.NewService(files, p, repository.NewSalarySlipRepository(store, logger), logger, slips.Options{})
	return NewServer(":0", NewHandler(svc, health, logger), true, logger).Handler()
}

func uploadRequest(t *testing.T, name, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(body)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pdf/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestUploadThenExtract(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	w := do(h, uploadRequest(t, "jan.pdf", "application/pdf", []byte("%PDF-1.7\nstub\n")))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	up := decode(t, w)
	fileID, _ := up["fileId"].(string)
	if up["success"] != true || len(fileID) != 64 || up["fileName"] != "jan.pdf" || up["deduplicated"] != false {
		t.Fatalf("unexpected upload body: %v", up)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}

	// same bytes again
	w = do(h, uploadRequest(t, "copy.pdf", "application/pdf", []byte("%PDF-1.7\nstub\n")))
	if again := decode(t, w); again["deduplicated"] != true || again["fileId"] != fileID {
		t.Fatalf("want deduplicated upload, got %v", again)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract", strings.NewReader(`{"fileId":"`+fileID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(h, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var res pipeline.ExtractionResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.Success || res.Slip == nil || res.Slip.NetPay != 240500 || res.Slip.EmployeeID != "A12345" {
		t.Fatalf("unexpected extraction: %+v", res)
	}
}

func TestUploadRejects(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	cases := []struct {
		name        string
		contentType string
		body        []byte
		want        int
	}{
		{"wrong content type", "text/plain", []byte("%PDF-1.7\n"), http.StatusBadRequest},
		{"not a pdf", "application/pdf", []byte("hello"), http.StatusBadRequest},
		{"too large", "application/pdf", append([]byte("%PDF-1.7\n"), make([]byte, constants.MaxUploadBytes)...), http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		w := do(h, uploadRequest(t, "x.pdf", c.contentType, c.body))
		if w.Code != c.want {
			t.Fatalf("%s: want=%d got=%d body=%s", c.name, c.want, w.Code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/pdf/upload", strings.NewReader("no form"))
	if w := do(h, req); w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: want=400 got=%d", w.Code)
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing file id", `{}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
		{"malformed id", `{"fileId":"../etc/passwd"}`, http.StatusBadRequest},
		{"unknown file", `{"fileId":"` + strings.Repeat("a", 64) + `"}`, http.StatusNotFound},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract", strings.NewReader(c.body))
		req.Header.Set("Content-Type", "application/json")
		if w := do(h, req); w.Code != c.want {
			t.Fatalf("%s: want=%d got=%d body=%s", c.name, c.want, w.Code, w.Body.String())
		}
	}
}

func TestSalarySlipLifecycle(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	body := `{
		"sourceFileName": "jan.pdf",
		"slip": {
			"employeeId": "A12345",
			"paymentDate": "2025-01-25",
			"earnings": {"baseSalary": 300000, "total": 300000},
			"deductions": {"total": 59500},
			"netPay": 240500
		}
	}`
	w := do(h, httptest.NewRequest(http.MethodPost, "/api/salary-slips", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	slip, _ := created["salarySlip"].(map[string]any)
	id, _ := slip["id"].(string)
	if id == "" {
		t.Fatalf("missing id in %v", created)
	}

	w = do(h, httptest.NewRequest(http.MethodPost, "/api/salary-slips", strings.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: want=409 got=%d body=%s", w.Code, w.Body.String())
	}
	if dup := decode(t, w); dup["code"] != common.CodeDuplicate {
		t.Fatalf("want duplicate code, got %v", dup)
	}

	w = do(h, httptest.NewRequest(http.MethodPost, "/api/salary-slips", strings.NewReader(`{"slip":{}}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid: want=400 got=%d", w.Code)
	}

	w = do(h, httptest.NewRequest(http.MethodGet, "/api/salary-slips/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: want=200 got=%d body=%s", w.Code, w.Body.String())
	}

	w = do(h, httptest.NewRequest(http.MethodGet, "/api/salary-slips?employeeId=A12345&from=2025-01-01", nil))
	if list := decode(t, w); w.Code != http.StatusOK || list["count"] != float64(1) {
		t.Fatalf("list: status=%d body=%v", w.Code, list)
	}

	w = do(h, httptest.NewRequest(http.MethodGet, "/api/salary-slips/export.xlsx", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("export: status=%d type=%q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestSalarySlipQueryErrors(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	cases := []struct {
		path string
		want int
	}{
		{"/api/salary-slips/not-a-uuid", http.StatusBadRequest},
		{"/api/salary-slips/3f1c1c8e-4a6a-4f55-9d3c-0c1d5b0d9a10", http.StatusNotFound},
		{"/api/salary-slips?limit=ten", http.StatusBadRequest},
		{"/api/salary-slips?limit=5000", http.StatusBadRequest},
		{"/api/salary-slips?from=2025-13-01", http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := do(h, httptest.NewRequest(http.MethodGet, c.path, nil)); w.Code != c.want {
			t.Fatalf("%s: want=%d got=%d body=%s", c.path, c.want, w.Code, w.Body.String())
		}
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ok := newTestServer(t, func(context.Context) error { return nil })
	if w := do(ok, httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusOK {
		t.Fatalf("want=200 got=%d", w.Code)
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	if w := do(down, httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want=503 got=%d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{common.FormatError("bad"), http.StatusBadRequest},
		{common.NewAppError(common.CodeNotFound, "gone", common.ErrNotFound), http.StatusNotFound},
		{common.NewAppError(common.CodeDuplicate, "dup", common.ErrDuplicate), http.StatusConflict},
		{common.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{common.DatabaseError("insert", errors.New("conn reset")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusFor(c.err); got != c.want {
			t.Fatalf("%v: want=%d got=%d", c.err, c.want, got)
		}
	}
}
