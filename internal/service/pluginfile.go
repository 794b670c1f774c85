package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"moove/internal/metrics"
	"moove/internal/repository"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

var ErrNotSystemContext = errors.New("theme files are only served from the system context")

// FileTarget is where a file area is routed.
type FileTarget int

const (
	TargetNone FileTarget = iota
	TargetSettingFile
	TargetHVPCSS
)

var (
	sliderImageArea = regexp.MustCompile(`^sliderimage[1-9][0-9]?$`)
	marketingArea   = regexp.MustCompile(`^marketing.*$`)
)

// RouteFileArea maps a file area to the server that handles it.
func RouteFileArea(fileArea string) FileTarget {
	switch {
	case fileArea == "logo", fileArea == "loginbgimg", fileArea == "favicon":
		return TargetSettingFile
	case fileArea == "hvp":
		return TargetHVPCSS
	case sliderImageArea.MatchString(fileArea):
		return TargetSettingFile
	case marketingArea.MatchString(fileArea):
		return TargetSettingFile
	default:
		return TargetNone
	}
}

// FileAreaLabel buckets numbered slider and marketing areas for metrics.
func FileAreaLabel(fileArea string) string {
	switch {
	case sliderImageArea.MatchString(fileArea):
		return "sliderimage"
	case marketingArea.MatchString(fileArea):
		return "marketing"
	case RouteFileArea(fileArea) == TargetNone:
		return "other"
	default:
		return fileArea
	}
}

// FileOptions mirrors the host's send_file options.
type FileOptions struct {
	Cacheability string // public or private
	Lifetime     time.Duration
}

// PluginFileRequest is one call of the file-serving entry point.
type PluginFileRequest struct {
	ContextID     int64
	FileArea      string
	Args          []string
	ForceDownload bool
	Options       FileOptions
}

// SettingFileServer is the host's generic theme setting file server.
type SettingFileServer interface {
	ServeSettingFile(w http.ResponseWriter, r *http.Request, fileArea string, args []string, forceDownload bool, opts FileOptions) bool
}

type PluginFileService struct {
	themeName       string
	systemContextID int64
	hvp             *HVPCSSService
	files           SettingFileServer
	observer        metrics.ThemeObserver
}

func NewPluginFileService(themeName string, systemContextID int64, hvp *HVPCSSService, files SettingFileServer, observer metrics.ThemeObserver) *PluginFileService {
	if observer == nil {
		observer = metrics.NopObserver{}
	}
	return &PluginFileService{
		themeName:       themeName,
		systemContextID: systemContextID,
		hvp:             hvp,
		files:           files,
		observer:        observer,
	}
}

// CheckContext rejects requests outside the system context.
func (s *PluginFileService) CheckContext(contextID int64) error {
	if contextID != s.systemContextID {
		return ErrNotSystemContext
	}
	return nil
}

// Serve dispatches the request. It reports false when nothing was written,
// leaving the not-found answer to the caller.
func (s *PluginFileService) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, req PluginFileRequest) bool {
	if err := s.CheckContext(req.ContextID); err != nil {
		logger.Debug("pluginfile outside system context", zap.Int64("context_id", req.ContextID))
		return false
	}

	served := false
	switch RouteFileArea(req.FileArea) {
	case TargetHVPCSS:
		// args are [itemid, filename]
		if len(req.Args) < 2 {
			break
		}
		s.hvp.Serve(ctx, w, req.Args[1], s.themeName)
		served = true
	case TargetSettingFile:
		opts := req.Options
		if opts.Cacheability == "" {
			opts.Cacheability = "public"
		}
		served = s.files.ServeSettingFile(w, r, req.FileArea, req.Args, req.ForceDownload, opts)
	}

	s.observer.RecordPluginFile(FileAreaLabel(req.FileArea), served)
	return served
}

// DiskSettingFileServer serves setting files from a FileRepository.
type DiskSettingFileServer struct {
	repo *repository.FileRepository
}

func NewDiskSettingFileServer(repo *repository.FileRepository) *DiskSettingFileServer {
	return &DiskSettingFileServer{repo: repo}
}

// ServeSettingFile expects args of [revision, path...]; a single arg is
// taken as the file name.
func (d *DiskSettingFileServer) ServeSettingFile(w http.ResponseWriter, r *http.Request, fileArea string, args []string, forceDownload bool, opts FileOptions) bool {
	if len(args) == 0 {
		return false
	}
	name := args[len(args)-1]
	if len(args) > 1 {
		name = strings.Join(args[1:], "/")
	}

	f, info, err := d.repo.Open(fileArea, name)
	if err != nil {
		if !errors.Is(err, repository.ErrFileNotFound) {
			logger.Warn("failed to open setting file", zap.String("filearea", fileArea), zap.Error(err))
		}
		return false
	}
	defer f.Close()

	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = HVPCacheLifetime
	}
	w.Header().Set("Cache-Control", opts.Cacheability+", max-age="+strconv.FormatInt(int64(lifetime/time.Second), 10))
	if forceDownload {
		w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
