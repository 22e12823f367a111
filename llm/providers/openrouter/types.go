package openrouter

import "encoding/json"

// Role values used in chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Output modalities requested from image-capable models.
const (
	ModalityImage = "image"
	ModalityText  = "text"
)

// ContentPart is one element of a multi-part message content array.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries either a remote URL or a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image_url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// Message is a chat message. Content is either a plain string or a slice of
// ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// UserText builds a plain-text user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// UserParts builds a multi-part user message.
func UserParts(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Content: parts}
}

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Modalities []string  `json:"modalities,omitempty"`
	Stream     bool      `json:"stream,omitempty"`
}

// ImageEntry is an image attached to a message or a stream delta.
type ImageEntry struct {
	Type     string   `json:"type,omitempty"`
	ImageURL ImageURL `json:"image_url"`
}

// ResponseMessage is the assistant message of a non-streaming completion.
type ResponseMessage struct {
	Role    string       `json:"role"`
	Content string       `json:"content"`
	Images  []ImageEntry `json:"images,omitempty"`
}

// Delta is the incremental payload of a stream chunk.
type Delta struct {
	Role    string       `json:"role,omitempty"`
	Content string       `json:"content,omitempty"`
	Images  []ImageEntry `json:"images,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int              `json:"index"`
	Message      *ResponseMessage `json:"message,omitempty"`
	Delta        *Delta           `json:"delta,omitempty"`
	FinishReason string           `json:"finish_reason,omitempty"`
}

// Usage reports token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is both a full completion and a single stream chunk.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Created int64    `json:"created,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Content returns the first choice's message content, or "".
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// DeltaImageURLs returns the image URLs of the first choice's delta, in
// emission order. Entries without a URL are dropped.
func (r *ChatResponse) DeltaImageURLs() []string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Delta == nil {
		return nil
	}
	var urls []string
	for _, img := range r.Choices[0].Delta.Images {
		if img.ImageURL.URL != "" {
			urls = append(urls, img.ImageURL.URL)
		}
	}
	return urls
}

// errorBody is the upstream error envelope.
type errorBody struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}
