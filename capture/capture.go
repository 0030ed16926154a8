// Package capture drives the on-robot camera and the remote recognition
// endpoint. A capture takes one frame, uploads it, and returns the
// recognition result exactly as the service reported it.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

// Capturer takes one image for an obstacle and returns the recognition
// result string to report to the operator.
type Capturer interface {
	Capture(ctx context.Context, obstacleID, signal string) (string, error)
}

// FrameSource produces one still frame as encoded image bytes.
type FrameSource interface {
	Frame(ctx context.Context) ([]byte, error)
}

// CommandCamera grabs frames by running an external still-capture command
// (rpicam-still or compatible) that writes the image to stdout.
type CommandCamera struct {
	Command string
	Args    []string
	Logger  *slog.Logger
}

var _ FrameSource = (*CommandCamera)(nil)

// Frame runs the capture command and returns its stdout.
func (c *CommandCamera) Frame(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errors.WrapUpstream(err, "capture", "Frame", "run "+c.Command)
	}
	return out.Bytes(), nil
}

// Recognizer uploads frames to the recognition endpoint.
type Recognizer struct {
	baseURL string
	source  FrameSource
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ Capturer = (*Recognizer)(nil)

// RecognizerDeps holds construction dependencies for the recognizer.
type RecognizerDeps struct {
	BaseURL    string
	Source     FrameSource
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewRecognizer creates a capture/recognition client.
func NewRecognizer(deps RecognizerDeps) *Recognizer {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		timeout := deps.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "capture")
	}
	return &Recognizer{
		baseURL: deps.BaseURL,
		source:  deps.Source,
		http:    httpClient,
		logger:  logger,
		now:     time.Now,
	}
}

// Capture grabs one frame and uploads it for recognition. The filename
// carries the capture time, obstacle id and signal so the stitcher can
// place the result; path-traversal characters are stripped from both.
func (r *Recognizer) Capture(ctx context.Context, obstacleID, signal string) (string, error) {
	frame, err := r.source.Frame(ctx)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d_%s_%s.jpg",
		r.now().Unix(),
		strings.ReplaceAll(obstacleID, "..", ""),
		strings.ReplaceAll(signal, "..", ""))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", errors.WrapUpstream(err, "capture", "Capture", "build upload")
	}
	if _, err := part.Write(frame); err != nil {
		return "", errors.WrapUpstream(err, "capture", "Capture", "build upload")
	}
	if err := writer.Close(); err != nil {
		return "", errors.WrapUpstream(err, "capture", "Capture", "build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/image", &body)
	if err != nil {
		return "", errors.WrapUpstream(err, "capture", "Capture", "build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.http.Do(req)
	if err != nil {
		return "", errors.WrapUpstream(
			fmt.Errorf("%w: %w", errors.ErrRecognitionFailed, err),
			"capture", "Capture", "upload frame")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WrapUpstream(err, "capture", "Capture", "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.WrapUpstream(
			fmt.Errorf("status %d: %w", resp.StatusCode, errors.ErrUpstreamStatus),
			"capture", "Capture", "upload frame")
	}

	result := strings.TrimSpace(string(raw))
	r.logger.Info("image recognized", "obstacle_id", obstacleID, "result", result)
	return result, nil
}
