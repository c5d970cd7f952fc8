package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"go.uber.org/zap"
)

const defaultReconcileAttempts = 3

// Reconciliation sources
const (
	SourceVerify  = "verify"
	SourceWebhook = "webhook"
)

// Reconciliation outcomes, also used as metric labels
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeConflict  = "conflict"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Observation is a provider report about a transaction. References holds
// every reference seen in the report; any of them may be the merchant or the
// gateway reference.
type Observation struct {
	Source           string
	References       []string
	GatewayReference string
	ReportedStatus   core.PaymentStatus
	RawPayload       []byte
}

// Outcome is the result of applying an observation.
type Outcome struct {
	Payment      *core.Payment
	Transitioned bool
	Conflict     bool
}

// Reconciler applies provider reports to stored payments. Each status change
// is written with a compare-and-set on the previously read status so that a
// verify call racing a webhook triggers at most one notification.
type Reconciler struct {
	paymentRepo output.PaymentRepository
	notifier    *Notifier
	metrics     output.PaymentMetrics
	log         *zap.Logger
	now         func() time.Time
	maxAttempts int
}

// NewReconciler creates a new reconciler
func NewReconciler(
	paymentRepo output.PaymentRepository,
	notifier *Notifier,
	metrics output.PaymentMetrics,
	log *zap.Logger,
) *Reconciler {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Reconciler{
		paymentRepo: paymentRepo,
		notifier:    notifier,
		metrics:     metrics,
		log:         log.Named("payment.reconciler"),
		now:         time.Now,
		maxAttempts: defaultReconcileAttempts,
	}
}

// Reconcile locates the payment referenced by obs and applies the reported
// status. A report contradicting a terminal status is logged and absorbed:
// the stored payment is returned unchanged with Conflict set.
func (r *Reconciler) Reconcile(ctx context.Context, obs Observation) (*Outcome, error) {
	refs := compactReferences(obs.References...)
	if len(refs) == 0 {
		return nil, core.ErrReferenceRequired
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		payment, err := r.paymentRepo.FindByReferences(ctx, refs...)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				r.metrics.ObserveReconciliation(obs.Source, OutcomeNotFound)
				r.log.Warn("no payment matches reported references",
					zap.String("source", obs.Source),
					zap.Strings("references", refs))
				return nil, err
			}
			r.metrics.ObserveReconciliation(obs.Source, OutcomeError)
			return nil, fmt.Errorf("%w: failed to look up payment: %w", core.ErrInternal, err)
		}

		outcome, done, err := r.apply(ctx, payment, obs)
		if err != nil {
			r.metrics.ObserveReconciliation(obs.Source, OutcomeError)
			return nil, err
		}
		if done {
			return outcome, nil
		}

		r.log.Debug("payment changed concurrently, re-reading",
			zap.String("merchant_reference", payment.MerchantReference),
			zap.Int("attempt", attempt))
	}

	r.metrics.ObserveReconciliation(obs.Source, OutcomeError)
	return nil, fmt.Errorf("%w: payment changed concurrently %d times", core.ErrInternal, r.maxAttempts)
}

// apply decides and writes a single transition. done is false when the
// conditional write lost a race and the caller must re-read.
func (r *Reconciler) apply(ctx context.Context, payment *core.Payment, obs Observation) (*Outcome, bool, error) {
	previous := payment.Status
	fields := []zap.Field{
		zap.String("source", obs.Source),
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_reference", payment.MerchantReference),
		zap.String("stored_status", string(previous)),
		zap.String("reported_status", string(obs.ReportedStatus)),
	}

	if previous.IsTerminal() && obs.ReportedStatus != previous {
		r.metrics.ObserveReconciliation(obs.Source, OutcomeConflict)
		r.log.Warn("ignoring status report that contradicts terminal payment", fields...)
		return &Outcome{Payment: payment, Conflict: true}, true, nil
	}

	bind := r.shouldBindGatewayReference(payment, obs.GatewayReference)
	if previous == obs.ReportedStatus && !bind {
		r.metrics.ObserveReconciliation(obs.Source, OutcomeDuplicate)
		r.log.Debug("status already applied", fields...)
		return &Outcome{Payment: payment}, true, nil
	}

	updated := *payment
	if bind {
		ref := obs.GatewayReference
		updated.GatewayReference = &ref
	}
	updated.Status = obs.ReportedStatus
	updated.UpdatedAt = r.now()
	if len(obs.RawPayload) > 0 {
		updated.RawProviderPayload = obs.RawPayload
	}

	written, err := r.paymentRepo.UpdateIfStatus(ctx, &updated, previous)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to update payment: %w", core.ErrInternal, err)
	}
	if !written {
		return nil, false, nil
	}

	transitioned := !previous.IsTerminal() && updated.Status.IsTerminal()
	r.metrics.ObserveReconciliation(obs.Source, OutcomeApplied)
	r.log.Info("payment reconciled", append(fields, zap.String("gateway_reference", updated.GatewayRef()))...)

	if transitioned && r.notifier != nil {
		r.notifier.PaymentStatusChanged(ctx, &updated)
	}

	return &Outcome{Payment: &updated, Transitioned: transitioned}, true, nil
}

func (r *Reconciler) shouldBindGatewayReference(payment *core.Payment, observed string) bool {
	if observed == "" || observed == payment.MerchantReference {
		return false
	}
	if !payment.HasGatewayReference() {
		return true
	}
	if payment.GatewayRef() != observed {
		r.log.Warn("provider reported a different gateway reference, keeping stored one",
			zap.String("merchant_reference", payment.MerchantReference),
			zap.String("stored", payment.GatewayRef()),
			zap.String("reported", observed))
	}
	return false
}

func compactReferences(refs ...string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
