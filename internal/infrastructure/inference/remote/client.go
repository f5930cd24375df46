package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/resilience"
)

// Client calls the hosted fracture analysis service. It is the first tier
// of the analyzer chain and the only one that may hand back a status
// decided upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type analyzeResponse struct {
	FractureType string  `json:"fractureType"`
	Confidence   float64 `json:"confidence"`
	Status       string  `json:"status"`
}

func (c *Client) Analyze(ctx context.Context, img []byte, lang domain.Language) (domain.Inference, error) {
	var payload analyzeResponse
	err := c.executor.Execute(ctx, "remote_analyze", func(ctx context.Context) error {
		return c.postImage(ctx, img, lang, &payload)
	}, classifyRemoteError)
	if err != nil {
		return domain.Inference{}, wrapTemporaryIfNeeded("remote analyze", err)
	}

	ft, err := domain.ParseFractureType(payload.FractureType)
	if err != nil {
		return domain.Inference{}, fmt.Errorf("remote analyze: unknown fracture type %q: %w", payload.FractureType, err)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return domain.Inference{}, fmt.Errorf("remote analyze: confidence %v out of range", payload.Confidence)
	}

	inf := domain.Inference{
		FractureType: ft,
		Confidence:   payload.Confidence,
		Provenance:   domain.ProvenanceRemote,
	}
	// The upstream service may have applied its own triage policy. Carry
	// its status verbatim when it is one of ours; otherwise leave it for
	// the caller's threshold rule.
	if status := domain.CaseStatus(payload.Status); status.Valid() {
		inf.Status = status
	}
	return inf, nil
}

func (c *Client) postImage(ctx context.Context, img []byte, lang domain.Language, out *analyzeResponse) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "radiograph.png")
	if err != nil {
		return fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return fmt.Errorf("write multipart file: %w", err)
	}
	if err := writer.WriteField("language", string(lang)); err != nil {
		return fmt.Errorf("write language field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "analyze",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode analyze response: %w", err)
	}
	return nil
}
