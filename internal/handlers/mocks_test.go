package handlers

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/piprapay"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

type mockPayments struct {
	StartBkashPaymentFunc     func(ctx context.Context, p *services.Principal, projectID string) (string, error)
	StartPiprapayPaymentFunc  func(ctx context.Context, p *services.Principal, projectID string) (string, error)
	HandleBkashCallbackFunc   func(ctx context.Context, paymentID, status string) services.Outcome
	HandlePiprapayReturnFunc  func(ctx context.Context, invoiceID, status string) services.Outcome
	HandlePiprapayWebhookFunc func(ctx context.Context, key, remoteAddr string, body []byte) error
	VerifyPiprapayFunc        func(ctx context.Context, invoiceID string) (piprapay.VerifyResult, error)
	EventsFunc                func(ctx context.Context, orderID string) ([]models.PaymentEvent, error)
}

func (m *mockPayments) StartBkashPayment(ctx context.Context, p *services.Principal, projectID string) (string, error) {
	return m.StartBkashPaymentFunc(ctx, p, projectID)
}

func (m *mockPayments) StartPiprapayPayment(ctx context.Context, p *services.Principal, projectID string) (string, error) {
	return m.StartPiprapayPaymentFunc(ctx, p, projectID)
}

func (m *mockPayments) HandleBkashCallback(ctx context.Context, paymentID, status string) services.Outcome {
	return m.HandleBkashCallbackFunc(ctx, paymentID, status)
}

func (m *mockPayments) HandlePiprapayReturn(ctx context.Context, invoiceID, status string) services.Outcome {
	return m.HandlePiprapayReturnFunc(ctx, invoiceID, status)
}

func (m *mockPayments) HandlePiprapayWebhook(ctx context.Context, key, remoteAddr string, body []byte) error {
	return m.HandlePiprapayWebhookFunc(ctx, key, remoteAddr, body)
}

func (m *mockPayments) VerifyPiprapay(ctx context.Context, invoiceID string) (piprapay.VerifyResult, error) {
	return m.VerifyPiprapayFunc(ctx, invoiceID)
}

func (m *mockPayments) Events(ctx context.Context, orderID string) ([]models.PaymentEvent, error) {
	return m.EventsFunc(ctx, orderID)
}

type mockProjects struct {
	CreateFunc func(ctx context.Context, in services.CreateProjectInput) (*models.Project, error)
	ViewFunc   func(ctx context.Context, id string) (*models.ProjectView, error)
	ListFunc   func(ctx context.Context, clientID *primitive.ObjectID, status *models.PaymentStatus) ([]models.ProjectView, error)
	UpdateFunc func(ctx context.Context, id string, in services.UpdateProjectInput) (*models.Project, error)
	DeleteFunc func(ctx context.Context, id string) error
	ExportFunc func(ctx context.Context, w io.Writer) error
}

func (m *mockProjects) Create(ctx context.Context, in services.CreateProjectInput) (*models.Project, error) {
	return m.CreateFunc(ctx, in)
}

func (m *mockProjects) View(ctx context.Context, id string) (*models.ProjectView, error) {
	return m.ViewFunc(ctx, id)
}

func (m *mockProjects) List(ctx context.Context, clientID *primitive.ObjectID, status *models.PaymentStatus) ([]models.ProjectView, error) {
	return m.ListFunc(ctx, clientID, status)
}

func (m *mockProjects) Update(ctx context.Context, id string, in services.UpdateProjectInput) (*models.Project, error) {
	return m.UpdateFunc(ctx, id, in)
}

func (m *mockProjects) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockProjects) ExportProjects(ctx context.Context, w io.Writer) error {
	return m.ExportFunc(ctx, w)
}

// tokenTable maps bearer tokens to principals.
type tokenTable map[string]*services.Principal

func (t tokenTable) Parse(token string) (*services.Principal, error) {
	p, ok := t[token]
	if !ok {
		return nil, services.ErrUnauthorized
	}
	return p, nil
}
