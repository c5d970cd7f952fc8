package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *ChapaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, SecretKey: "CHASECK_TEST", Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewChapaClient(cfg, nil, zap.NewNop())
}

func TestLastPathSegment(t *testing.T) {
	tests := map[string]string{
		"https://pay/AP99": "AP99",
		"https://checkout.chapa.co/checkout/payment/APXYZ123":  "APXYZ123",
		"https://checkout.chapa.co/checkout/payment/APXYZ123/": "APXYZ123",
		"https://checkout.chapa.co/pay/AP1?lang=en":            "AP1",
		"https://checkout.chapa.co":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, LastPathSegment(in), in)
	}
}

func TestInitiate_ExtractsGatewayReference(t *testing.T) {
	var got initializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer CHASECK_TEST", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.chapa.co/checkout/payment/APXYZ123"}}`))
	})

	res, err := client.Initiate(context.Background(), output.InitiateRequest{
		Amount:            decimal.NewFromInt(500),
		Email:             "a@b.com",
		MerchantReference: "CHAP-0A1B2C3D4E5F",
		CallbackURL:       "http://localhost:8080/api/v1/chapa/verify/",
	})
	require.NoError(t, err)
	assert.Equal(t, "APXYZ123", res.GatewayReference)
	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/APXYZ123", res.CheckoutURL)

	assert.Equal(t, "500", got.Amount)
	assert.Equal(t, "ETB", got.Currency)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, "CHAP-0A1B2C3D4E5F", got.TxRef)
}

func TestInitiate_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "provider failure", status: http.StatusBadRequest, body: `{"status":"failed","message":{"email":["invalid"]},"data":null}`},
		{name: "non success status", status: http.StatusOK, body: `{"status":"failed","message":"nope"}`},
		{name: "malformed body", status: http.StatusOK, body: `<html>oops</html>`},
		{name: "checkout url without reference", status: http.StatusOK, body: `{"status":"success","data":{"checkout_url":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Initiate(context.Background(), output.InitiateRequest{Amount: decimal.NewFromInt(1)})
			require.ErrorIs(t, err, core.ErrGatewayRejected)

			var gwErr *core.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.status, gwErr.StatusCode)
			assert.NotNil(t, gwErr.Details())
		})
	}
}

func TestInitiate_Unavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, func(c *Config) { c.Timeout = 20 * time.Millisecond })

	_, err := client.Initiate(context.Background(), output.InitiateRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrGatewayUnavailable)
}

func TestVerify_ProbesPrefixedVariant(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.URL.Path != "/transaction/verify/CHAP-0A1B2C3D4E5F" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"failed","message":"Invalid transaction or Transaction not found","data":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","message":"Payment details","data":{"tx_ref":"CHAP-0A1B2C3D4E5F","reference":"AP99","status":"success","amount":500}}`))
	})

	res, err := client.Verify(context.Background(), "0A1B2C3D4E5F")
	require.NoError(t, err)
	assert.Equal(t, []string{"/transaction/verify/0A1B2C3D4E5F", "/transaction/verify/CHAP-0A1B2C3D4E5F"}, calls)
	assert.Equal(t, "CHAP-0A1B2C3D4E5F", res.ProbedReference)
	assert.Equal(t, "CHAP-0A1B2C3D4E5F", res.MerchantReference)
	assert.Equal(t, "AP99", res.GatewayReference)
	assert.Equal(t, "success", res.ProviderStatus)
	assert.Contains(t, string(res.Raw), `"amount":500`)
}

func TestVerify_PrefixedReferenceIsProbedOnce(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"failed","message":"not found"}`))
	})

	_, err := client.Verify(context.Background(), "CHAP-0A1B2C3D4E5F")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestVerify_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	client := NewChapaClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil, zap.NewNop())

	_, err := client.Verify(context.Background(), "AP99")
	assert.ErrorIs(t, err, core.ErrGatewayUnavailable)
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"reference":"AP99","status":"success"}`)
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	client := NewChapaClient(Config{WebhookSecret: "whsec"}, nil, zap.NewNop())
	assert.NoError(t, client.VerifyWebhookSignature(payload, signature))
	assert.ErrorIs(t, client.VerifyWebhookSignature(payload, "deadbeef"), core.ErrInvalidSignature)
	assert.ErrorIs(t, client.VerifyWebhookSignature(payload, ""), core.ErrInvalidSignature)

	open := NewChapaClient(Config{}, nil, zap.NewNop())
	assert.NoError(t, open.VerifyWebhookSignature(payload, ""))
}
