package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.chapa.co/v1"
	maxBodyBytes   = 1 << 20
	statusSuccess  = "success"
)

// Config holds Chapa client settings
type Config struct {
	BaseURL         string
	SecretKey       string
	WebhookSecret   string
	Currency        core.Currency
	ReturnURL       string
	ReferencePrefix string
	Timeout         time.Duration
}

// ChapaClient is a secondary adapter that implements the PaymentGateway output port
type ChapaClient struct {
	cfg        Config
	httpClient *http.Client
	metrics    output.PaymentMetrics
	log        *zap.Logger
}

// NewChapaClient creates a new Chapa client
func NewChapaClient(cfg Config, metrics output.PaymentMetrics, log *zap.Logger) *ChapaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Currency == "" {
		cfg.Currency = core.CurrencyETB
	}
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = core.DefaultReferencePrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &ChapaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		log:        log.Named("chapa"),
	}
}

type initializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url,omitempty"`
}

type initializeResponse struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verifyData struct {
	TxRef     string `json:"tx_ref"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Initiate opens a checkout session. The provider does not return its own
// reference directly; it is the last path segment of the checkout URL.
func (c *ChapaClient) Initiate(ctx context.Context, req output.InitiateRequest) (*output.InitiateResult, error) {
	const op = "initialize"

	payload := initializeRequest{
		Amount:      req.Amount.String(),
		Currency:    string(c.cfg.Currency),
		Email:       req.Email,
		TxRef:       req.MerchantReference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   c.cfg.ReturnURL,
	}

	statusCode, body, err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		c.metrics.ObserveGatewayCall(op, "unavailable")
		return nil, &core.GatewayError{Kind: core.ErrGatewayUnavailable, Op: op, Err: err}
	}

	var parsed initializeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.metrics.ObserveGatewayCall(op, "rejected")
		return nil, &core.GatewayError{Kind: core.ErrGatewayRejected, Op: op, StatusCode: statusCode, Body: body, Err: err}
	}
	if statusCode != http.StatusOK || parsed.Status != statusSuccess || parsed.Data == nil {
		c.metrics.ObserveGatewayCall(op, "rejected")
		return nil, &core.GatewayError{Kind: core.ErrGatewayRejected, Op: op, StatusCode: statusCode, Body: body}
	}

	gatewayRef := LastPathSegment(parsed.Data.CheckoutURL)
	if gatewayRef == "" {
		c.metrics.ObserveGatewayCall(op, "rejected")
		return nil, &core.GatewayError{
			Kind:       core.ErrGatewayRejected,
			Op:         op,
			StatusCode: statusCode,
			Body:       body,
			Err:        errors.New("checkout_url has no reference segment"),
		}
	}

	c.metrics.ObserveGatewayCall(op, "success")
	return &output.InitiateResult{
		CheckoutURL:      parsed.Data.CheckoutURL,
		GatewayReference: gatewayRef,
		ProviderStatus:   parsed.Status,
	}, nil
}

// Verify looks up a transaction. The provider accepts references in more
// than one form, so the raw reference is tried first and then the
// merchant-prefixed variant. The first successful answer wins.
func (c *ChapaClient) Verify(ctx context.Context, reference string) (*output.VerifyResult, error) {
	const op = "verify"

	candidates := []string{reference}
	if !core.HasReferencePrefix(reference, c.cfg.ReferencePrefix) {
		candidates = append(candidates, c.cfg.ReferencePrefix+"-"+reference)
	}

	var lastErr error
	for _, candidate := range candidates {
		c.log.Debug("verifying payment reference", zap.String("reference", candidate))

		statusCode, body, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(candidate), nil)
		if err != nil {
			lastErr = &core.GatewayError{Kind: core.ErrGatewayUnavailable, Op: op, Err: err}
			if ctx.Err() != nil {
				break
			}
			continue
		}

		var parsed verifyResponse
		if json.Unmarshal(body, &parsed) == nil && statusCode == http.StatusOK && parsed.Status == statusSuccess {
			var data verifyData
			if err := json.Unmarshal(parsed.Data, &data); err != nil {
				lastErr = &core.GatewayError{Kind: core.ErrGatewayRejected, Op: op, StatusCode: statusCode, Body: body, Err: err}
				continue
			}
			c.metrics.ObserveGatewayCall(op, "success")
			return &output.VerifyResult{
				ProbedReference:   candidate,
				MerchantReference: data.TxRef,
				GatewayReference:  data.Reference,
				ProviderStatus:    data.Status,
				Raw:               []byte(parsed.Data),
			}, nil
		}

		lastErr = &core.GatewayError{Kind: core.ErrNotFound, Op: op, StatusCode: statusCode, Body: body}
	}

	var gwErr *core.GatewayError
	if errors.As(lastErr, &gwErr) && errors.Is(gwErr.Kind, core.ErrGatewayUnavailable) {
		c.metrics.ObserveGatewayCall(op, "unavailable")
	} else {
		c.metrics.ObserveGatewayCall(op, "not_found")
	}
	c.log.Warn("verification failed for all references", zap.Strings("references", candidates), zap.Error(lastErr))
	return nil, lastErr
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of payload against
// signature. Verification is skipped when no webhook secret is configured.
func (c *ChapaClient) VerifyWebhookSignature(payload []byte, signature string) error {
	if c.cfg.WebhookSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return core.ErrInvalidSignature
	}
	return nil
}

func (c *ChapaClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// LastPathSegment returns the final non-empty path segment of rawURL.
func LastPathSegment(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}
