package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	v1 "moove/pkg/api/v1"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

// Stylesheet is one fetch of the H5P custom CSS.
type Stylesheet struct {
	Body         []byte
	ETag         string
	LastModified time.Time
	// Changed is false when the ETag matches the previous fetch.
	Changed bool
}

// ThemeClient is used by a host to call the theme service.
type ThemeClient struct {
	addr       string
	themeName  string
	contextID  int64
	httpClient *http.Client

	mu       sync.RWMutex
	lastETag string
}

func NewThemeClient(addr, themeName string, systemContextID int64) *ThemeClient {
	return &ThemeClient{
		addr:       strings.TrimSuffix(addr, "/"),
		themeName:  themeName,
		contextID:  systemContextID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ThemeClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return resp, nil
}

// AlterH5P runs the theme's renderer hooks over one render pass.
func (c *ThemeClient) AlterH5P(ctx context.Context, req v1.AlterRequest) (*v1.AlterResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/h5p/alter", bytes.NewReader(payload))
	if err != nil {
		logger.Error("failed to alter h5p assets", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	var out v1.AlterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode alter response: %w", err)
	}
	return &out, nil
}

// FetchHVPCSS downloads the H5P stylesheet under the given file name.
func (c *ThemeClient) FetchHVPCSS(ctx context.Context, filename string) (*Stylesheet, error) {
	path := fmt.Sprintf("/pluginfile.php/%d/theme_%s/hvp/0/%s", c.contextID, c.themeName, filename)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	sheet := &Stylesheet{
		Body: body,
		ETag: resp.Header.Get("ETag"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			sheet.LastModified = t
		}
	}

	c.mu.Lock()
	sheet.Changed = sheet.ETag != c.lastETag
	c.lastETag = sheet.ETag
	c.mu.Unlock()

	if sheet.Changed {
		logger.Debug("h5p stylesheet changed", zap.String("etag", sheet.ETag))
	}
	return sheet, nil
}

// LastETag is the ETag seen on the most recent FetchHVPCSS.
func (c *ThemeClient) LastETag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastETag
}

// SCSS fetches one SCSS hook: main, extra, pre or precompiled.
func (c *ThemeClient) SCSS(ctx context.Context, kind string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/scss/"+kind, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
