package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"moove/internal/metrics"
	"moove/internal/repository"
	"moove/pkg/constraints"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

// HVPCacheLifetime is sixty days. The stylesheet URL carries no revision, so
// clients rely on ETag and Last-Modified to notice changes.
const HVPCacheLifetime = 60 * 24 * time.Hour

// HVPStylesheet is the resolved H5P custom CSS of a theme.
type HVPStylesheet struct {
	Content      string
	Fingerprint  string
	LastModified time.Time
}

// HVPCSSService serves the scssh5p setting as a cacheable stylesheet.
//
// The fingerprint/timestamp pair is a plain read-compare-write on the
// setting store. Two requests racing on a content change may both write; the
// worst outcome is a Last-Modified that is off by one refresh.
type HVPCSSService struct {
	store    repository.SettingStore
	observer metrics.ThemeObserver
	now      func() time.Time
}

func NewHVPCSSService(store repository.SettingStore, observer metrics.ThemeObserver) *HVPCSSService {
	if observer == nil {
		observer = metrics.NopObserver{}
	}
	return &HVPCSSService{
		store:    store,
		observer: observer,
		now:      time.Now,
	}
}

// Fingerprint is the hex MD5 of the CSS text.
func Fingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Resolve reads the current CSS of the theme and refreshes the stored
// fingerprint and last-modified time when the content changed. Store
// failures degrade to empty CSS and a fresh timestamp.
func (s *HVPCSSService) Resolve(ctx context.Context, themeName string) HVPStylesheet {
	return s.resolveAt(ctx, themeName, s.now())
}

func (s *HVPCSSService) resolveAt(ctx context.Context, themeName string, now time.Time) HVPStylesheet {
	component := constraints.ThemeComponent(themeName)

	content, _, err := s.store.Get(ctx, component, constraints.SettingSCSSH5P)
	if err != nil {
		logger.Warn("failed to read h5p css, serving empty stylesheet",
			zap.String("component", component), zap.Error(err))
		content = ""
	}
	fingerprint := Fingerprint(content)

	stored, found, err := s.store.Get(ctx, component, constraints.SettingHVPFingerprint)
	if err != nil {
		logger.Warn("failed to read h5p css fingerprint", zap.String("component", component), zap.Error(err))
		found = false
	}

	if !found || stored == "" || stored != fingerprint {
		s.observer.RecordHVPChange()
		if err := s.store.Set(ctx, component, constraints.SettingHVPFingerprint, fingerprint); err != nil {
			logger.Warn("failed to store h5p css fingerprint", zap.String("component", component), zap.Error(err))
		}
		if err := s.store.Set(ctx, component, constraints.SettingHVPLastModified, strconv.FormatInt(now.Unix(), 10)); err != nil {
			logger.Warn("failed to store h5p css last modified", zap.String("component", component), zap.Error(err))
		}
		logger.Debug("h5p css changed", zap.String("component", component), zap.String("fingerprint", fingerprint))
		return HVPStylesheet{Content: content, Fingerprint: fingerprint, LastModified: now}
	}

	return HVPStylesheet{
		Content:      content,
		Fingerprint:  fingerprint,
		LastModified: s.lastModified(ctx, component, now),
	}
}

func (s *HVPCSSService) lastModified(ctx context.Context, component string, now time.Time) time.Time {
	raw, found, err := s.store.Get(ctx, component, constraints.SettingHVPLastModified)
	if err != nil {
		logger.Warn("failed to read h5p css last modified", zap.String("component", component), zap.Error(err))
		return now
	}
	if !found {
		return now
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return now
	}
	return time.Unix(secs, 0)
}

// Serve writes the stylesheet with its caching headers. Content-Length is
// left out when an upstream writer already set a Content-Encoding, since the
// body will be rewritten by the compressor.
func (s *HVPCSSService) Serve(ctx context.Context, w http.ResponseWriter, filename, themeName string) {
	now := s.now()
	sheet := s.resolveAt(ctx, themeName, now)
	lifetime := int64(HVPCacheLifetime / time.Second)

	h := w.Header()
	h.Set("ETag", `"`+sheet.Fingerprint+`"`)
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	h.Set("Last-Modified", httpDate(sheet.LastModified))
	h.Set("Expires", httpDate(now.Add(HVPCacheLifetime)))
	h.Del("Pragma")
	h.Set("Cache-Control", "public, max-age="+strconv.FormatInt(lifetime, 10))
	h.Set("Accept-Ranges", "none")
	h.Set("Content-Type", "text/css; charset=utf-8")
	if h.Get("Content-Encoding") == "" {
		h.Set("Content-Length", strconv.Itoa(len(sheet.Content)))
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(sheet.Content)); err != nil {
		logger.Debug("h5p css write interrupted", zap.Error(err))
	}
	s.observer.RecordHVPServed()
}

func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
