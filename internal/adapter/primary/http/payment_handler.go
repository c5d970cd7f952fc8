package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/input"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const maxWebhookBytes = 1 << 20

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	paymentService input.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService input.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// InitiatePaymentRequest represents the HTTP request to initiate a payment
type InitiatePaymentRequest struct {
	BookingID string          `json:"booking_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
	Email     string          `json:"email" validate:"omitempty,email"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID                string `json:"payment_id"`
	BookingID         string `json:"booking_id"`
	Amount            string `json:"amount"`
	MerchantReference string `json:"merchant_reference"`
	GatewayReference  string `json:"chapa_reference,omitempty"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// InitiatePaymentResponse is the HTTP response for a successful initiation
type InitiatePaymentResponse struct {
	Message           string          `json:"message"`
	PaymentURL        string          `json:"payment_url"`
	MerchantReference string          `json:"merchant_reference"`
	ChapaReference    string          `json:"chapa_reference"`
	Payment           PaymentResponse `json:"payment"`
}

// VerifyPaymentResponse is the HTTP response for verification
type VerifyPaymentResponse struct {
	Message   string `json:"message"`
	Reference string `json:"reference"`
	TxRef     string `json:"tx_ref"`
	Status    string `json:"status"`
}

type webhookPayload struct {
	Reference string `json:"reference"`
	TxRef     string `json:"tx_ref"`
	Status    string `json:"status"`
}

func toPaymentResponse(p input.PaymentResponse) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		BookingID:         p.BookingID.String(),
		Amount:            p.Amount.StringFixed(2),
		MerchantReference: p.MerchantReference,
		GatewayReference:  p.GatewayReference,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
}

// InitiatePayment handles POST /api/v1/payments/initiate
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	response, err := h.paymentService.InitiatePayment(c.Request().Context(), input.InitiatePaymentRequest{
		BookingID: uuid.MustParse(req.BookingID),
		Amount:    req.Amount,
		Email:     req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, InitiatePaymentResponse{
		Message:           "Payment initialized successfully.",
		PaymentURL:        response.CheckoutURL,
		MerchantReference: response.Payment.MerchantReference,
		ChapaReference:    response.Payment.GatewayReference,
		Payment:           toPaymentResponse(response.Payment),
	})
}

// VerifyPayment handles GET /api/v1/chapa/verify/:reference and the provider
// callback GET /api/v1/chapa/verify?trx_ref=...
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	reference := c.Param("reference")
	for _, key := range []string{"trx_ref", "tx_ref", "reference", "ref_id"} {
		if reference != "" {
			break
		}
		reference = c.QueryParam(key)
	}

	response, err := h.paymentService.VerifyPayment(c.Request().Context(), reference)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, VerifyPaymentResponse{
		Message:   "Payment verified successfully.",
		Reference: response.ReportedReference,
		TxRef:     response.ReportedTxRef,
		Status:    string(response.Payment.Status),
	})
}

// Webhook handles POST /api/v1/chapa/webhook. A report that contradicts a
// settled payment is acknowledged like a processed one.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid webhook payload"})
	}
	if strings.TrimSpace(payload.Reference) == "" && strings.TrimSpace(payload.TxRef) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing 'reference' in webhook payload"})
	}

	signature := c.Request().Header.Get("Chapa-Signature")
	if signature == "" {
		signature = c.Request().Header.Get("X-Chapa-Signature")
	}

	_, err = h.paymentService.HandleWebhook(c.Request().Context(), input.WebhookRequest{
		Reference:   payload.Reference,
		TxReference: payload.TxRef,
		Status:      payload.Status,
		Raw:         raw,
		Signature:   signature,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidSignature) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid signature"})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Webhook processed successfully."})
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payment ID"})
	}

	response, err := h.paymentService.GetPayment(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, toPaymentResponse(*response))
}
