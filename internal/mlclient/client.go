package mlclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	maxErrorBody = 2048
)

// Recorder observes individual attempts. Outcomes are "ok", "rejected",
// "server_error", "timeout", "network" and "bad_response".
type Recorder interface {
	ObserveAttempt(outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, time.Duration) {}

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MaxAttempts   int
	HealthTimeout time.Duration
	HTTPClient    *http.Client
	Recorder      Recorder
}

type Client struct {
	baseURL       string
	timeout       time.Duration
	maxAttempts   int
	healthTimeout time.Duration
	httpClient    *http.Client
	recorder      Recorder
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		timeout:       opts.Timeout,
		maxAttempts:   opts.MaxAttempts,
		healthTimeout: opts.HealthTimeout,
		httpClient:    opts.HTTPClient,
		recorder:      opts.Recorder,
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = 5 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	return c
}

// NormalizeGender trims and lowercases gender and checks it is accepted.
func NormalizeGender(gender string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(gender))
	if g != GenderMale && g != GenderFemale {
		return "", &Error{Kind: ErrInvalidArgument, Detail: fmt.Sprintf("gender %q must be male or female", gender)}
	}
	return g, nil
}

// Analyze posts the image to {base}/analyze/user and maps the response.
// image is rewound before every attempt, so the same bytes are resent.
func (c *Client) Analyze(ctx context.Context, image io.ReadSeeker, filename, contentType, gender string) (*Result, error) {
	g, err := NormalizeGender(gender)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, &Error{Kind: ErrInvalidArgument, Detail: "image is required"}
	}

	endpoint := c.baseURL + "/analyze/user"
	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if _, err := image.Seek(0, io.SeekStart); err != nil {
			return nil, &Error{Kind: ErrInvalidArgument, Detail: "image is not rewindable", Err: err}
		}

		slog.Info("calling ml service", "attempt", attempt, "max_attempts", c.maxAttempts, "url", endpoint)
		start := time.Now()
		body, status, err := c.post(ctx, endpoint, image, filename, contentType, g)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			outcome := "network"
			if isTimeout(err) {
				outcome = "timeout"
			}
			c.recorder.ObserveAttempt(outcome, elapsed)
			slog.Warn("ml service request failed", "attempt", attempt, "outcome", outcome, "error", err)
			lastErr, lastStatus = err, 0
			if ctx.Err() != nil {
				return nil, &Error{Kind: ErrUpstreamUnavailable, Attempts: attempt, Err: err}
			}
			continue

		case status >= 400 && status < 500:
			c.recorder.ObserveAttempt("rejected", elapsed)
			slog.Error("ml service rejected request", "status", status, "detail", string(body))
			return nil, &Error{Kind: ErrUpstreamRejected, StatusCode: status, Attempts: attempt, Detail: string(body)}

		case status < 200 || status >= 300:
			c.recorder.ObserveAttempt("server_error", elapsed)
			slog.Warn("ml service error", "attempt", attempt, "status", status)
			lastErr, lastStatus = fmt.Errorf("unexpected status %d", status), status
			continue
		}

		if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
			c.recorder.ObserveAttempt("bad_response", elapsed)
			slog.Warn("ml service returned invalid JSON", "attempt", attempt)
			lastErr, lastStatus = errors.New("response body is not a JSON object"), status
			continue
		}

		c.recorder.ObserveAttempt("ok", elapsed)
		slog.Info("ml analysis received", "status", gjson.GetBytes(body, "status").String(), "attempts", attempt)
		return MapResponse(body), nil
	}

	slog.Error("ml service unavailable", "attempts", c.maxAttempts, "error", lastErr)
	return nil, &Error{Kind: ErrUpstreamUnavailable, StatusCode: lastStatus, Attempts: c.maxAttempts, Err: lastErr}
}

func (c *Client) post(ctx context.Context, endpoint string, image io.Reader, filename, contentType, gender string) ([]byte, int, error) {
	payload, formType, err := buildForm(image, filename, contentType, gender)
	if err != nil {
		return nil, 0, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return detail, resp.StatusCode, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func buildForm(image io.Reader, filename, contentType, gender string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename == "" {
		filename = "image.jpg"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.WriteField("gender", gender); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Health reports whether GET {base}/health answers 200. It never fails.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("ml health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
