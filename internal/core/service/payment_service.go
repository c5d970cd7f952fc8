package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/input"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentDeps groups the collaborators of the payment service
type PaymentDeps struct {
	PaymentRepo output.PaymentRepository
	BookingRepo output.BookingRepository
	Gateway     output.PaymentGateway
	Reconciler  *Reconciler
	Metrics     output.PaymentMetrics
	Log         *zap.Logger

	// ReferencePrefix is prepended to generated merchant references
	ReferencePrefix string
	// CallbackURL is where the provider redirects the payer after checkout
	CallbackURL string
}

// PaymentServiceImpl implements the PaymentService input port
type PaymentServiceImpl struct {
	paymentRepo     output.PaymentRepository
	bookingRepo     output.BookingRepository
	gateway         output.PaymentGateway
	reconciler      *Reconciler
	metrics         output.PaymentMetrics
	log             *zap.Logger
	referencePrefix string
	callbackURL     string
}

// NewPaymentService creates a new payment service
func NewPaymentService(deps PaymentDeps) input.PaymentService {
	prefix := deps.ReferencePrefix
	if prefix == "" {
		prefix = core.DefaultReferencePrefix
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &PaymentServiceImpl{
		paymentRepo:     deps.PaymentRepo,
		bookingRepo:     deps.BookingRepo,
		gateway:         deps.Gateway,
		reconciler:      deps.Reconciler,
		metrics:         metrics,
		log:             deps.Log.Named("payment.service"),
		referencePrefix: prefix,
		callbackURL:     deps.CallbackURL,
	}
}

// InitiatePayment validates the request, opens a checkout with the gateway
// and records the payment. No payment is stored when the gateway call fails.
func (s *PaymentServiceImpl) InitiatePayment(ctx context.Context, req input.InitiatePaymentRequest) (*input.InitiatePaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: failed to load booking: %w", core.ErrInternal, err)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = booking.Email
	}
	if email == "" {
		return nil, core.ErrEmailRequired
	}

	reference := core.GenerateReference(s.referencePrefix)

	result, err := s.gateway.Initiate(ctx, output.InitiateRequest{
		Amount:            req.Amount,
		Email:             email,
		MerchantReference: reference,
		CallbackURL:       s.callbackURL,
	})
	if err != nil {
		s.log.Error("chapa payment initialization failed",
			zap.String("merchant_reference", reference),
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
		return nil, err
	}

	payment := &core.Payment{
		ID:                uuid.New(),
		BookingID:         booking.ID,
		Amount:            req.Amount,
		MerchantReference: reference,
		Status:            core.PaymentStatusPending,
	}
	if result.GatewayReference != "" {
		gatewayRef := result.GatewayReference
		payment.GatewayReference = &gatewayRef
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, core.ErrDuplicateReference) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to create payment: %w", core.ErrInternal, err)
	}

	s.log.Info("chapa payment record created",
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("merchant_reference", payment.MerchantReference),
		zap.String("gateway_reference", payment.GatewayRef()))

	return &input.InitiatePaymentResponse{
		CheckoutURL: result.CheckoutURL,
		Payment:     input.NewPaymentResponse(payment),
	}, nil
}

// VerifyPayment asks the gateway for the outcome of reference and reconciles it.
func (s *PaymentServiceImpl) VerifyPayment(ctx context.Context, reference string) (*input.ReconcileResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, core.ErrReferenceRequired
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.log.Error("chapa verification failed", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}

	status, err := core.ParseProviderStatus(result.ProviderStatus)
	if err != nil {
		return nil, &core.GatewayError{Kind: core.ErrGatewayRejected, Op: "verify", Body: result.Raw, Err: err}
	}

	outcome, err := s.reconciler.Reconcile(ctx, Observation{
		Source:           SourceVerify,
		References:       []string{reference, result.ProbedReference, result.MerchantReference, result.GatewayReference},
		GatewayReference: result.GatewayReference,
		ReportedStatus:   status,
		RawPayload:       result.Raw,
	})
	if err != nil {
		return nil, err
	}

	return &input.ReconcileResponse{
		Payment:           input.NewPaymentResponse(outcome.Payment),
		ReportedReference: result.GatewayReference,
		ReportedTxRef:     result.MerchantReference,
		ProviderStatus:    result.ProviderStatus,
		Conflict:          outcome.Conflict,
	}, nil
}

// HandleWebhook reconciles a provider callback.
func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, req input.WebhookRequest) (*input.ReconcileResponse, error) {
	if err := s.gateway.VerifyWebhookSignature(req.Raw, req.Signature); err != nil {
		s.log.Warn("rejecting webhook with invalid signature")
		return nil, err
	}

	req.Reference = strings.TrimSpace(req.Reference)
	req.TxReference = strings.TrimSpace(req.TxReference)
	if req.Reference == "" && req.TxReference == "" {
		return nil, core.ErrReferenceRequired
	}

	status, err := core.ParseProviderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	outcome, err := s.reconciler.Reconcile(ctx, Observation{
		Source:           SourceWebhook,
		References:       []string{req.Reference, req.TxReference},
		GatewayReference: req.Reference,
		ReportedStatus:   status,
		RawPayload:       req.Raw,
	})
	if err != nil {
		return nil, err
	}

	return &input.ReconcileResponse{
		Payment:           input.NewPaymentResponse(outcome.Payment),
		ReportedReference: req.Reference,
		ReportedTxRef:     req.TxReference,
		ProviderStatus:    req.Status,
		Conflict:          outcome.Conflict,
	}, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id uuid.UUID) (*input.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := input.NewPaymentResponse(payment)
	return &resp, nil
}
