package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/bkash"
	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/piprapay"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

type fakeProjects struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Project
}

func newFakeProjects(projects ...models.Project) *fakeProjects {
	f := &fakeProjects{items: map[primitive.ObjectID]models.Project{}}
	for _, p := range projects {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, project *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.OrderID == project.OrderID {
			return repository.ErrDuplicate
		}
	}
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	f.items[project.ID] = *project
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) GetByOrderID(_ context.Context, orderID string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProjects) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.items {
		if filter.ClientID != nil && p.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, id primitive.ObjectID, changes models.ProjectChanges) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if changes.PaymentStatus != nil && p.PaymentStatus == models.StatusPaid {
		return nil, repository.ErrPaidLocked
	}
	if changes.Name != nil {
		p.Name = *changes.Name
	}
	if changes.Description != nil {
		p.Description = *changes.Description
	}
	if changes.ClientID != nil {
		p.ClientID = *changes.ClientID
	}
	if changes.Amount != nil {
		p.Amount = *changes.Amount
	}
	if changes.ExpiryDate != nil {
		p.ExpiryDate = *changes.ExpiryDate
	}
	if changes.PaymentStatus != nil {
		p.PaymentStatus = *changes.PaymentStatus
	}
	p.UpdatedAt = changes.UpdatedAt
	f.items[id] = p
	return &p, nil
}

func (f *fakeProjects) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProjects) MarkPaid(_ context.Context, orderID string, paidAt time.Time) (*models.Project, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.items {
		if p.OrderID != orderID {
			continue
		}
		if p.PaymentStatus == models.StatusPaid {
			return &p, false, nil
		}
		p.PaymentStatus = models.StatusPaid
		p.PaidAt = &paidAt
		f.items[id] = p
		return &p, true, nil
	}
	return nil, false, repository.ErrNotFound
}

type fakeClients struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Client
}

func newFakeClients(clients ...models.Client) *fakeClients {
	f := &fakeClients{items: map[primitive.ObjectID]models.Client{}}
	for _, c := range clients {
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeClients) Create(_ context.Context, client *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[client.ID] = *client
	return nil
}

func (f *fakeClients) GetByID(_ context.Context, id primitive.ObjectID) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeClients) List(_ context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Client
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClients) Update(_ context.Context, client *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[client.ID]; !ok {
		return repository.ErrNotFound
	}
	f.items[client.ID] = *client
	return nil
}

func (f *fakeClients) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func (f *fakeEvents) Insert(_ context.Context, event *models.PaymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEvents) ListByOrder(_ context.Context, orderID string) ([]models.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentEvent
	for _, e := range f.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) outcomes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Outcome
	}
	return out
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	values   map[string]map[string]string
	allCalls int
}

func (f *fakeSettingsRepo) Get(_ context.Context, provider string) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[provider]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Settings{Provider: provider, Values: v}, nil
}

func (f *fakeSettingsRepo) All(_ context.Context) ([]models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	var out []models.Settings
	for p, v := range f.values {
		copied := map[string]string{}
		for k, val := range v {
			copied[k] = val
		}
		out = append(out, models.Settings{Provider: p, Values: copied})
	}
	return out, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, provider string, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[string]map[string]string{}
	}
	if f.values[provider] == nil {
		f.values[provider] = map[string]string{}
	}
	for k, v := range values {
		f.values[provider][k] = v
	}
	return nil
}

type staticSettings models.SettingsSnapshot

func (s staticSettings) Snapshot(context.Context) (models.SettingsSnapshot, error) {
	return models.SettingsSnapshot(s), nil
}

type mockBkash struct {
	CreatePaymentFunc  func(ctx context.Context, req bkash.PaymentRequest) (*bkash.CreatePaymentResult, error)
	ExecutePaymentFunc func(ctx context.Context, paymentID string) (*bkash.ExecuteResult, error)
}

func (m *mockBkash) CreatePayment(ctx context.Context, req bkash.PaymentRequest) (*bkash.CreatePaymentResult, error) {
	return m.CreatePaymentFunc(ctx, req)
}

func (m *mockBkash) ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecuteResult, error) {
	return m.ExecutePaymentFunc(ctx, paymentID)
}

type mockPiprapay struct {
	CreateChargeFunc  func(ctx context.Context, req piprapay.ChargeRequest) piprapay.ChargeResult
	VerifyPaymentFunc func(ctx context.Context, invoiceID string) piprapay.VerifyResult
}

func (m *mockPiprapay) CreateCharge(ctx context.Context, req piprapay.ChargeRequest) piprapay.ChargeResult {
	return m.CreateChargeFunc(ctx, req)
}

func (m *mockPiprapay) VerifyPayment(ctx context.Context, invoiceID string) piprapay.VerifyResult {
	return m.VerifyPaymentFunc(ctx, invoiceID)
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSMS) Send(_ context.Context, to, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to+": "+message)
	return r.err
}

func (r *recordingSMS) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}
