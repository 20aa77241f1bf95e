package publisher

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/requestid"
	"golang.org/x/time/rate"
)

// HTTPPublisher posts variant content to a single configured external
// endpoint. The http.Client hardening (TLS floor, pooled idle connections,
// bounded redirects) is carried over unchanged from the teacher's job
// executor; only the request shape and the rate limiter in front of it are
// new. ratePerMinute/60 as the limiter's token rate mirrors how
// teranos-QNTX sizes its per-watcher rate.Limiter.
type HTTPPublisher struct {
	client     *http.Client
	endpoint   string
	metricsURL string
	token      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewHTTPPublisher(endpoint, metricsURL, token string, ratePerMinute int, logger *slog.Logger) *HTTPPublisher {
	if ratePerMinute <= 0 {
		ratePerMinute = 5
	}
	return &HTTPPublisher{
		client: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		endpoint:   endpoint,
		metricsURL: metricsURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
		logger:     logger.With("component", "publisher"),
	}
}

type publishRequest struct {
	Text      string   `json:"text"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

type publishResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (p *HTTPPublisher) Publish(ctx context.Context, variant *domain.PostVariant) (Outcome, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(publishRequest{Text: variant.Text, MediaURLs: variant.MediaURLs})
	if err != nil {
		return Outcome{}, fmt.Errorf("encode publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	reqID := requestid.New()
	req.Header.Set("X-Request-ID", reqID)
	ctx = requestid.WithRequestID(ctx, reqID)

	p.logger.InfoContext(ctx, "publishing variant", "variant_id", variant.ID)

	resp, err := p.client.Do(req)
	if err != nil {
		return Outcome{}, Transient(fmt.Errorf("publish request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return Outcome{}, Transient(fmt.Errorf("publish endpoint returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return Outcome{}, fmt.Errorf("publish endpoint rejected request: %d: %s", resp.StatusCode, string(data))
	}

	var parsed publishResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Outcome{}, fmt.Errorf("decode publish response: %w", err)
	}
	if parsed.ID == "" {
		return Outcome{}, fmt.Errorf("publish response missing id")
	}

	p.logger.InfoContext(ctx, "variant published", "variant_id", variant.ID, "external_id", parsed.ID)
	return Outcome{ExternalID: parsed.ID, URL: parsed.URL}, nil
}

func (p *HTTPPublisher) GetMetrics(ctx context.Context, externalID string) (Metrics, error) {
	if p.metricsURL == "" {
		return Metrics{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.metricsURL+"/"+externalID, nil)
	if err != nil {
		return Metrics{}, fmt.Errorf("build metrics request: %w", err)
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Metrics{}, Transient(fmt.Errorf("metrics request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	var m Metrics
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Metrics{}, fmt.Errorf("decode metrics response: %w", err)
	}
	return m, nil
}
