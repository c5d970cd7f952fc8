package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
)

// MockPaymentRepository keeps payments in memory. UpdateIfStatus compares
// and sets under the lock like the database adapter does.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*core.Payment

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	FindError   error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[uuid.UUID]*core.Payment)}
}

func clonePayment(p *core.Payment) *core.Payment {
	cp := *p
	if p.GatewayReference != nil {
		ref := *p.GatewayReference
		cp.GatewayReference = &ref
	}
	return &cp
}

func (m *MockPaymentRepository) Add(p *core.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = clonePayment(p)
}

func (m *MockPaymentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *core.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.MerchantReference == payment.MerchantReference {
			return core.ErrDuplicateReference
		}
	}
	m.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (m *MockPaymentRepository) FindByReferences(ctx context.Context, refs ...string) (*core.Payment, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		for _, ref := range refs {
			if p.MerchantReference == ref || p.GatewayRef() == ref {
				return clonePayment(p), nil
			}
		}
	}
	return nil, core.ErrPaymentNotFound
}

func (m *MockPaymentRepository) UpdateIfStatus(ctx context.Context, payment *core.Payment, expected core.PaymentStatus) (bool, error) {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	m.payments[payment.ID] = clonePayment(payment)
	return true, nil
}

// MockBookingRepository keeps bookings in memory.
type MockBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*core.Booking

	GetError error
}

func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{bookings: make(map[uuid.UUID]*core.Booking)}
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *core.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *booking
	m.bookings[booking.ID] = &cp
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// MockJobQueue records enqueued jobs.
type MockJobQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob

	EnqueueError error
}

type enqueuedJob struct {
	Name string
	Args json.RawMessage
}

func (m *MockJobQueue) Enqueue(ctx context.Context, name string, args any) error {
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, enqueuedJob{Name: name, Args: raw})
	return nil
}

func (m *MockJobQueue) Close() error { return nil }

func (m *MockJobQueue) Jobs(name string) []enqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []enqueuedJob
	for _, j := range m.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// MockGateway returns canned responses.
type MockGateway struct {
	mu sync.Mutex

	InitiateResult *output.InitiateResult
	InitiateError  error
	VerifyResults  map[string]*output.VerifyResult
	VerifyError    error
	SignatureError error

	InitiateRequests []output.InitiateRequest
	VerifyCallCount  int32
}

func (m *MockGateway) Initiate(ctx context.Context, req output.InitiateRequest) (*output.InitiateResult, error) {
	m.mu.Lock()
	m.InitiateRequests = append(m.InitiateRequests, req)
	m.mu.Unlock()
	if m.InitiateError != nil {
		return nil, m.InitiateError
	}
	return m.InitiateResult, nil
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*output.VerifyResult, error) {
	atomic.AddInt32(&m.VerifyCallCount, 1)
	if m.VerifyError != nil {
		return nil, m.VerifyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.VerifyResults[reference]; ok {
		return r, nil
	}
	return nil, &core.GatewayError{Kind: core.ErrNotFound, Op: "verify", StatusCode: 404}
}

func (m *MockGateway) VerifyWebhookSignature(payload []byte, signature string) error {
	return m.SignatureError
}

// MockMailer records sent mail.
type MockMailer struct {
	mu   sync.Mutex
	Sent []string

	SendError error
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to+"|"+subject+"|"+body)
	return nil
}
