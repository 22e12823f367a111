package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/organaizer/internal/tlsutil"
	"go.uber.org/zap"
)

var (
	errUnsupportedScheme = errors.New("unsupported image url scheme")
	errImageTooLarge     = errors.New("image exceeds size limit")
)

// Fetcher 拉取远程后端返回的图片 URL
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	maxPixels int64
	recorder  Recorder
	logger    *zap.Logger
}

// NewFetcher 创建拉取器。client 为 nil 时使用 tlsutil.FetchHTTPClient
func NewFetcher(client *http.Client, cfg Config, recorder Recorder, logger *zap.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	if client == nil {
		client = tlsutil.FetchHTTPClient(cfg.FetchTimeout)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:    client,
		timeout:   cfg.FetchTimeout,
		maxBytes:  cfg.MaxFetchBytes,
		maxPixels: cfg.MaxPixels,
		recorder:  recorder,
		logger:    logger.With(zap.String("component", "image_fetcher")),
	}
}

// Fetch 返回图片字节。data: URL 就地解码，其他 URL 使用 GET，非 2xx 视为失败
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "data:") {
		data, _, err := decodeDataURI(rawURL)
		return data, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", errUnsupportedScheme, u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("image fetch failed: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

// Resolve 拉取并适配图片，返回 PNG data URI。拉取失败时原样返回 URL
func (f *Fetcher) Resolve(ctx context.Context, rawURL string, p Preset) string {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		f.recorder.RecordImageFetch(fetchRawURL)
		f.logger.Warn("image fetch failed, keeping raw url",
			zap.String("url", truncateURL(rawURL)),
			zap.Error(err))
		return rawURL
	}
	f.recorder.RecordImageFetch(fetchProcessed)
	return FitToAspectLimit(data, p, f.maxPixels)
}

// truncateURL 避免把整段 data URI 写进日志
func truncateURL(u string) string {
	const limit = 96
	if len(u) <= limit {
		return u
	}
	return u[:limit] + "..."
}
