package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/common"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// Client talks to the extraction backend's REST surface. Two HTTP clients
// mirror the two transport profiles: a short timeout for JSON requests and a
// long one for multipart uploads.
type Client struct {
	baseURL    string
	jsonHTTP   *http.Client
	uploadHTTP *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client from backend configuration.
func NewClient(cfg common.BackendConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.BaseURL
	if base == "" {
		base = common.DefaultBaseURL
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 300 * time.Second
	}
	return &Client{
		baseURL:    base,
		jsonHTTP:   &http.Client{Timeout: requestTimeout},
		uploadHTTP: &http.Client{Timeout: uploadTimeout},
		logger:     logger,
	}
}

// requestID reuses a caller-supplied request id from the context, falling
// back to a fresh one so every request is traceable in the logs.
func requestID(ctx context.Context) string {
	if id := common.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// errorEnvelope is the backend's non-2xx body. Some routes use "error",
// others "message"; surface whichever is present verbatim.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func backendError(status int, body []byte) error {
	var env errorEnvelope
	msg := ""
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			msg = env.Error
		} else if env.Message != "" {
			msg = env.Message
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("non-2xx status: %d", status)
	}
	return common.NewAppError("BACKEND_ERROR", msg, common.ErrBackend)
}

// Process submits one file to the extraction endpoint as multipart form data
// and returns the validated result set.
func (c *Client) Process(ctx context.Context, domain constants.Domain, filePath, companyName string) (*ProcessResponse, error) {
	reqID := requestID(ctx)
	start := time.Now()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.logger.Warn("backend.process.file_close_error", "req_id", reqID, "error", err)
		}
	}()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if companyName != "" {
		if err := mw.WriteField("nama_pt_utama", companyName); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/%s/process", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("backend.process.request",
		"req_id", reqID,
		"domain", string(domain),
		"file", filepath.Base(filePath),
	)

	raw, status, err := c.do(c.uploadHTTP, req, reqID)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, backendError(status, raw)
	}

	if err := ValidateJSONAgainstSchema(BuildProcessResponseSchema(), raw); err != nil {
		return nil, common.NewAppError("BACKEND_SHAPE", "unexpected process response shape", err)
	}

	var out ProcessResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode process response: %w", err)
	}

	c.logger.Info("backend.process.ok",
		"req_id", reqID,
		"results", len(out.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, nil
}

// Save submits items as one JSON array to the save endpoint. A single-item
// save sends a one-element array; the backend treats both the same.
func (c *Client) Save(ctx context.Context, items []SaveItem) (string, error) {
	reqID := requestID(ctx)

	bs, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}

	endpoint := c.baseURL + "/api/save"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("backend.save.request", "req_id", reqID, "items", len(items))

	raw, status, err := c.do(c.jsonHTTP, req, reqID)
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", backendError(status, raw)
	}

	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		// 2xx with an unreadable body still counts as saved
		c.logger.Warn("backend.save.decode_warning", "req_id", reqID, "error", err)
	}
	return env.Message, nil
}

// Delete removes one persisted record.
func (c *Client) Delete(ctx context.Context, jenis string, id int64) error {
	reqID := requestID(ctx)

	endpoint := fmt.Sprintf("%s/api/delete/%s/%d", c.baseURL, url.PathEscape(jenis), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	c.logger.Info("backend.delete.request", "req_id", reqID, "jenis", jenis, "id", id)

	raw, status, err := c.do(c.jsonHTTP, req, reqID)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return backendError(status, raw)
	}
	return nil
}

// Laporan fetches the persisted records for one report category.
func (c *Client) Laporan(ctx context.Context, category constants.ReportCategory) ([]entity.ReportRecord, error) {
	reqID := requestID(ctx)

	endpoint := fmt.Sprintf("%s/api/laporan/%s", c.baseURL, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	raw, status, err := c.do(c.jsonHTTP, req, reqID)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, backendError(status, raw)
	}

	var records []entity.ReportRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode laporan response: %w", err)
	}
	return records, nil
}

// DownloadExport streams the backend's XLSX export for a category into w.
// It does not buffer the workbook in memory.
func (c *Client) DownloadExport(ctx context.Context, category constants.ReportCategory, w io.Writer) error {
	reqID := requestID(ctx)

	endpoint := c.ExportURL(category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	c.logger.Info("backend.export.request", "req_id", reqID, "category", string(category))

	resp, err := c.uploadHTTP.Do(req)
	if err != nil {
		return common.NewAppError("TRANSPORT_ERROR", fmt.Sprintf("export request failed: %v", err), common.ErrTransport)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("backend.export.body_close_error", "req_id", reqID, "error", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(resp.Body)
		return backendError(resp.StatusCode, raw)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("stream export: %w", err)
	}
	c.logger.Info("backend.export.ok", "req_id", reqID, "bytes", n)
	return nil
}

// ExportURL is the deterministic export location for a category.
func (c *Client) ExportURL(category constants.ReportCategory) string {
	return fmt.Sprintf("%s/api/laporan/export/%s", c.baseURL, category)
}

// PreviewURL resolves an item's opaque preview reference to a fetchable URL.
func (c *Client) PreviewURL(domain constants.Domain, previewRef string) string {
	return fmt.Sprintf("%s/api/%s/uploads/%s", c.baseURL, domain, url.PathEscape(previewRef))
}

// do executes a request and returns the raw body plus status. Transport
// failures come back wrapped so callers can distinguish them from
// server-reported errors.
func (c *Client) do(hc *http.Client, req *http.Request, reqID string) ([]byte, int, error) {
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Error("backend.http.send_error",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, common.NewAppError("TRANSPORT_ERROR", fmt.Sprintf("backend unreachable: %v", err), common.ErrTransport)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("backend.http.body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("backend.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}
