package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/services/slips"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

// Handler serves the upload, extraction and saved-slip endpoints.
type Handler struct {
	svc    *slips.Service
	health func(context.Context) error
	logger *slog.Logger
}

// NewHandler builds a Handler. health may be nil.
func NewHandler(svc *slips.Service, health func(context.Context) error, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, health: health, logger: logger}
}

// RegisterRoutes mounts the API under router (normally the /api group).
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// uploads
	router.POST("/pdf/upload", h.Upload)
	router.POST("/pdf/extract", h.Extract)

	// saved slips
	router.POST("/salary-slips", h.SaveSlip)
	router.GET("/salary-slips", h.ListSlips)
	router.GET("/salary-slips/export.xlsx", h.ExportSlips)
	router.GET("/salary-slips/:id", h.GetSlip)
}

// Health reports database reachability.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadBytes+uploadOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file exceeds 10 MB"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "multipart field \"file\" is required"})
		return
	}
	if fh.Size > constants.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file exceeds 10 MB"})
		return
	}
	mt, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if mt != "application/pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "only application/pdf uploads are accepted"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cannot read upload"})
		return
	}
	defer func() { _ = f.Close() }()

	res, err := h.svc.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.fail(c, "upload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"fileId":       res.FileID,
		"fileName":     res.Filename,
		"size":         res.Size,
		"deduplicated": res.Deduplicated,
	})
}

type extractRequest struct {
	FileID string `json:"fileId"`
}

func (h *Handler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "fileId is required"})
		return
	}
	res, err := h.svc.Extract(c.Request.Context(), strings.TrimSpace(req.FileID))
	if err != nil {
		h.fail(c, "extract", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SaveSlip(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cannot read body"})
		return
	}
	rec, err := h.svc.Save(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, "save", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "salarySlip": rec})
}

func (h *Handler) ListSlips(c *gin.Context) {
	f := repository.ListFilter{
		EmployeeID: strings.TrimSpace(c.Query("employeeId")),
		From:       strings.TrimSpace(c.Query("from")),
		To:         strings.TrimSpace(c.Query("to")),
	}
	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	recs, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "salarySlips": recs, "count": len(recs)})
}

func (h *Handler) GetSlip(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "salarySlip": rec})
}

func (h *Handler) ExportSlips(c *gin.Context) {
	f := repository.ListFilter{
		EmployeeID: strings.TrimSpace(c.Query("employeeId")),
		From:       strings.TrimSpace(c.Query("from")),
		To:         strings.TrimSpace(c.Query("to")),
		Limit:      1000,
	}
	b, err := h.svc.ExportXLSX(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	name := fmt.Sprintf("salary_slips_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, b)
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http."+op+".failed", "request_id", common.RequestIDFromContext(c.Request.Context()), "error", err)
	} else {
		h.logger.Warn("http."+op+".rejected", "request_id", common.RequestIDFromContext(c.Request.Context()), "error", err)
	}
	body := gin.H{"success": false, "error": err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body["code"] = appErr.Code
		body["error"] = appErr.Message
	}
	c.JSON(code, body)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNotPDF), errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
