package image

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func inlineResponse(blobs ...[]byte) *genai.GenerateContentResponse {
	parts := []*genai.Part{genai.NewPartFromText("here you go")}
	for _, b := range blobs {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: b}})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromParts(parts, genai.RoleModel)}},
	}
}

func TestGeminiGenerator_Generate(t *testing.T) {
	models := &fakeModels{resp: inlineResponse(pngBytes(t, 40, 30), pngBytes(t, 10, 10))}
	rec := &fakeRecorder{}
	gen := NewGeminiGenerator(models, GeminiConfig{}, rec, zaptest.NewLogger(t))

	refs := []ReferenceImage{{Filename: "ref.webp", Data: []byte("webp")}}
	images, err := gen.Generate(context.Background(), remoteRequest("skyline", "wide", refs...))
	require.NoError(t, err)
	require.Len(t, images, 2)

	hash := promptHash("skyline")
	assert.Equal(t, "gemini_img_0_"+hash, images[0].ID)
	assert.Equal(t, "gemini_img_1_"+hash, images[1].ID)
	assert.Equal(t, "skyline", images[1].Description)
	w, h := pngSize(t, images[0].URL)
	assert.Equal(t, 1792, w)
	assert.Equal(t, 1024, h)

	assert.Equal(t, "gemini-2.5-flash-image-preview", models.model)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, models.config.ResponseModalities)
	assert.Equal(t, "16:9", models.config.ImageConfig.AspectRatio)

	require.Len(t, models.contents, 1)
	parts := models.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "skyline")
	assert.Equal(t, "image/webp", parts[1].InlineData.MIMEType)
	assert.Equal(t, []string{fetchProcessed, fetchProcessed}, rec.fetches)
}

func TestGeminiGenerator_OversizedInlineKeepsBytes(t *testing.T) {
	forged := headerOnlyPNG(30000, 30000)
	models := &fakeModels{resp: inlineResponse(forged)}
	gen := NewGeminiGenerator(models, GeminiConfig{MaxPixels: 1 << 20}, nil, zaptest.NewLogger(t))

	images, err := gen.Generate(context.Background(), remoteRequest("cat", "square"))
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, rawDataURI(forged), images[0].URL)
}

func TestGeminiGenerator_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		models ContentGenerator
	}{
		{"no client", nil},
		{"api error", &fakeModels{err: errors.New("quota exceeded")}},
		{"text only", &fakeModels{resp: inlineResponse()}},
		{"nil response", &fakeModels{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGeminiGenerator(tt.models, GeminiConfig{}, nil, nil)
			images, err := gen.Generate(context.Background(), remoteRequest("cat", "square"))
			assert.Nil(t, images)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, errNoCredential)
}
