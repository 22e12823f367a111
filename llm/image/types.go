// 包 image 实现带宽高比适配与本地兜底的文生图流程.
package image

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable 远程生成不可用。远程后端的所有失败都包装为该错误
var ErrUnavailable = errors.New("remote image generation unavailable")

// GeneratedImage 是返回给客户端的一张图片
type GeneratedImage struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ReferenceImage 是随请求上传的参考图
type ReferenceImage struct {
	Filename string
	Data     []byte
}

// MIMEType 按扩展名推断类型，默认 image/jpeg
func (r ReferenceImage) MIMEType() string {
	switch strings.ToLower(filepath.Ext(r.Filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// DataURI 返回 base64 data URI
func (r ReferenceImage) DataURI() string {
	return DataURI(r.MIMEType(), r.Data)
}

// GenerationRequest 是一次文生图请求
type GenerationRequest struct {
	Prompt      string
	AspectRatio string
	References  []ReferenceImage
}

// RemoteRequest 是交给远程后端的请求
type RemoteRequest struct {
	// Prompt 为追加了尺寸要求的提示词
	Prompt string
	// OriginalPrompt 用于描述和 ID
	OriginalPrompt string
	Preset         Preset
	References     []ReferenceImage
}

// RemoteGenerator 远程生成后端
type RemoteGenerator interface {
	// Generate 返回至少一张图；否则返回包装了 ErrUnavailable 的错误
	Generate(ctx context.Context, req *RemoteRequest) ([]GeneratedImage, error)
	Name() string
}

// Tier 标识结果来源
type Tier string

const (
	TierRemote   Tier = "remote"
	TierFallback Tier = "fallback"
)

// Result 是一次生成的结果。Images 总是非空
type Result struct {
	Tier   Tier
	Preset Preset
	// Reason 为兜底原因，仅 TierFallback 时非空
	Reason error
	Images []GeneratedImage
}

// Recorder 接收生成过程的指标
type Recorder interface {
	RecordImageGeneration(tier, preset string, duration time.Duration)
	RecordImageFetch(outcome string)
	RecordStreamChunkSkipped()
}

type nopRecorder struct{}

func (nopRecorder) RecordImageGeneration(string, string, time.Duration) {}
func (nopRecorder) RecordImageFetch(string)                             {}
func (nopRecorder) RecordStreamChunkSkipped()                           {}

// 远程图片的拉取结果
const (
	fetchProcessed = "processed"
	fetchRawURL    = "raw_url"
)

// unavailable 包装 ErrUnavailable
func unavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, cause)
}

// promptHash 返回 FNV-1a 32 位哈希的十进制形式
func promptHash(prompt string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return strconv.FormatUint(uint64(h.Sum32()), 10)
}

// remoteID 生成 "{prefix}_img_{index}_{hash}"
func remoteID(prefix string, index int, prompt string) string {
	return prefix + "_img_" + strconv.Itoa(index) + "_" + promptHash(prompt)
}
