package openrouter

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// StreamReader is a single-pass iterator over a server-sent event stream of
// chat completion chunks.
//
//	for r.Next() {
//	    chunk := r.Chunk()
//	}
//	if err := r.Err(); err != nil { ... }
//
// Only "data:" lines are parsed. "[DONE]" ends the stream. A payload that is
// not valid JSON is skipped, and so is a line longer than the line limit.
type StreamReader struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	maxLine int
	chunk   *ChatResponse
	err     error
	done    bool
	skipped int
	onSkip  func(payload string, err error)
}

// DefaultMaxLineBytes bounds one SSE line. Inline base64 images are often
// several megabytes on a single line.
const DefaultMaxLineBytes = 128 << 20

// ErrLineTooLong is reported to OnSkip for a line over the limit.
var ErrLineTooLong = errors.New("stream line exceeds limit")

// NewStreamReader wraps an SSE body.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	return &StreamReader{
		body:    body,
		reader:  bufio.NewReader(body),
		maxLine: DefaultMaxLineBytes,
	}
}

// WithMaxLineBytes sets the line limit. n <= 0 keeps DefaultMaxLineBytes.
func (r *StreamReader) WithMaxLineBytes(n int) *StreamReader {
	if n > 0 {
		r.maxLine = n
	}
	return r
}

// OnSkip registers a callback for every skipped payload.
func (r *StreamReader) OnSkip(fn func(payload string, err error)) {
	r.onSkip = fn
}

// Next advances to the next chunk. It returns false at the end of the
// stream or on a read error; check Err afterwards.
func (r *StreamReader) Next() bool {
	r.chunk = nil
	for !r.done {
		line, tooLong, err := r.readLine()
		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
		}
		if tooLong {
			r.skip(line, ErrLineTooLong)
			continue
		}

		chunk, ok := r.parse(line)
		if ok {
			r.chunk = chunk
			return true
		}
	}
	return false
}

// parse handles one line. It sets done on [DONE].
func (r *StreamReader) parse(line string) (*ChatResponse, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return nil, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return nil, false
	}
	if payload == "[DONE]" {
		r.done = true
		return nil, false
	}

	var chunk ChatResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		r.skip(payload, err)
		return nil, false
	}
	return &chunk, true
}

// readLine reads up to and including '\n'. Past maxLine the rest of the line
// is discarded and tooLong is set; line then holds only a short prefix.
func (r *StreamReader) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	for {
		frag, readErr := r.reader.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(frag) > r.maxLine {
				tooLong = true
				buf = buf[:min(len(buf), 64)]
			} else {
				buf = append(buf, frag...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), tooLong, readErr
	}
}

func (r *StreamReader) skip(payload string, err error) {
	r.skipped++
	if r.onSkip != nil {
		r.onSkip(payload, err)
	}
}

// Chunk returns the chunk produced by the last successful Next.
func (r *StreamReader) Chunk() *ChatResponse {
	return r.chunk
}

// Err returns the read error that stopped the stream, if any.
func (r *StreamReader) Err() error {
	return r.err
}

// Skipped returns how many payloads failed to parse.
func (r *StreamReader) Skipped() int {
	return r.skipped
}

// Close releases the underlying body.
func (r *StreamReader) Close() error {
	r.done = true
	return r.body.Close()
}
