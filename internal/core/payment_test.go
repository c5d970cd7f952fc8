package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProviderStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    PaymentStatus
		wantErr bool
	}{
		{raw: "success", want: PaymentStatusCompleted},
		{raw: " SUCCESS ", want: PaymentStatusCompleted},
		{raw: "failed", want: PaymentStatusFailed},
		{raw: "cancelled", want: PaymentStatusFailed},
		{raw: "pending", want: PaymentStatusPending},
		{raw: "refund-ish", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseProviderStatus(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
}

func TestGatewayError_Classification(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&GatewayError{Kind: ErrGatewayUnavailable, Op: "initialize", Err: cause})

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrGatewayRejected)

	var gwErr *GatewayError
	assert.True(t, errors.As(err, &gwErr))
	assert.Nil(t, gwErr.Details())

	rejected := &GatewayError{Kind: ErrGatewayRejected, Op: "initialize", StatusCode: 400, Body: []byte(`{"status":"failed"}`)}
	assert.Contains(t, rejected.Error(), "http 400")
	assert.NotNil(t, rejected.Details())
}
