package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/BaSui01/organaizer/api"
	"github.com/BaSui01/organaizer/llm/image"
	"github.com/BaSui01/organaizer/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🖼️ 文生图 Handler
// =============================================================================

// DefaultMaxUploadBytes 默认上传上限
const DefaultMaxUploadBytes int64 = 20 << 20

// TierHeader 标识图片来源（remote / fallback）
const TierHeader = "X-Image-Tier"

// ImageGenerator 文生图编排接口
type ImageGenerator interface {
	Generate(ctx context.Context, req *image.GenerationRequest) (*image.Result, error)
}

// TextImageHandler 处理 /api/text-image/generate
type TextImageHandler struct {
	service        ImageGenerator
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewTextImageHandler 创建文生图处理器
func NewTextImageHandler(service ImageGenerator, maxUploadBytes int64, logger *zap.Logger) *TextImageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextImageHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(zap.String("handler", "text_image")),
	}
}

// HandleGenerate 处理文生图请求
// @Summary 文生图
// @Description 按宽高比预设生成图片，远程不可用时返回兜底图片
// @Tags 图片
// @Accept multipart/form-data
// @Produce json
// @Param prompt formData string true "提示词"
// @Param aspect_ratio formData string false "square, landscape, portrait, wide, tall"
// @Param images formData file false "参考图"
// @Success 200 {object} api.TextImageResponse "生成结果"
// @Failure 400 {object} api.DetailResponse "无效请求"
// @Security ApiKeyAuth
// @Router /api/text-image/generate [post]
func (h *TextImageHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	req, err := h.parseRequest(r)
	if err != nil {
		h.logger.Warn("invalid text-image request", zap.Error(err))
		WriteDetail(w, http.StatusBadRequest, detailFor(err))
		return
	}

	result, err := h.service.Generate(r.Context(), req)
	if err != nil {
		if e, ok := types.AsError(err); ok && e.Code == types.ErrInvalidRequest {
			WriteDetail(w, http.StatusBadRequest, e.Message)
			return
		}
		h.logger.Error("image generation failed", zap.Error(err))
		WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := api.TextImageResponse{Images: make([]api.Image, 0, len(result.Images))}
	for _, img := range result.Images {
		resp.Images = append(resp.Images, api.Image{
			ID:          img.ID,
			URL:         img.URL,
			Description: img.Description,
		})
	}

	w.Header().Set(TierHeader, string(result.Tier))
	WriteJSON(w, http.StatusOK, resp)
}

var errUnsupportedContentType = errors.New("Content-Type must be multipart/form-data or application/x-www-form-urlencoded")

// parseRequest 读取表单。multipart 按顺序读取各部分，带文件名的部分都视为参考图
func (h *TextImageHandler) parseRequest(r *http.Request) (*image.GenerationRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		return h.parseMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
		return &image.GenerationRequest{
			Prompt:      r.PostForm.Get("prompt"),
			AspectRatio: r.PostForm.Get("aspect_ratio"),
		}, nil
	default:
		return nil, errUnsupportedContentType
	}
}

func (h *TextImageHandler) parseMultipart(r *http.Request) (*image.GenerationRequest, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	req := &image.GenerationRequest{}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %q: %w", part.FormName(), err)
		}

		if filename := part.FileName(); filename != "" {
			req.References = append(req.References, image.ReferenceImage{Filename: filename, Data: data})
			continue
		}
		switch part.FormName() {
		case "prompt":
			req.Prompt = string(data)
		case "aspect_ratio":
			req.AspectRatio = strings.TrimSpace(string(data))
		}
	}
	return req, nil
}

// detailFor 把解析错误转成面向客户端的描述
func detailFor(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit)
	}
	if errors.Is(err, errUnsupportedContentType) {
		return errUnsupportedContentType.Error()
	}
	return err.Error()
}
