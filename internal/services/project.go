package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

type ProjectService struct {
	projects repository.ProjectRepository
	clients  repository.ClientRepository
	now      func() time.Time
}

func NewProjectService(projects repository.ProjectRepository, clients repository.ClientRepository) *ProjectService {
	return &ProjectService{projects: projects, clients: clients, now: time.Now}
}

type CreateProjectInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ClientID    string    `json:"client_id"`
	Amount      float64   `json:"amount"`
	ExpiryDate  time.Time `json:"expiry_date"`
	// OrderID is generated when empty.
	OrderID string `json:"order_id"`
}

// UpdateProjectInput holds a partial edit; nil fields are left unchanged.
type UpdateProjectInput struct {
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	ClientID      *string               `json:"client_id"`
	Amount        *float64              `json:"amount"`
	ExpiryDate    *time.Time            `json:"expiry_date"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

// NewOrderID returns an invoice number such as ORD-3F2A9C1B.
func NewOrderID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}

func normalizeAmount(amount float64) (float64, error) {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	return d.Round(2).InexactFloat64(), nil
}

func (s *ProjectService) resolveClient(ctx context.Context, clientID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(clientID))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid client_id", ErrInvalidInput)
	}
	if _, err := s.clients.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return primitive.NilObjectID, fmt.Errorf("%w: client %s does not exist", ErrInvalidInput, clientID)
		}
		return primitive.NilObjectID, err
	}
	return id, nil
}

func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	clientID, err := s.resolveClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = NewOrderID()
	}

	now := s.now()
	project := &models.Project{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		OrderID:       orderID,
		ClientID:      clientID,
		Amount:        amount,
		PaymentStatus: models.StatusPending,
		ExpiryDate:    in.ExpiryDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateOrder
		}
		log.Printf("Failed to create project: %v", err)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Printf("Project created: ID=%s, OrderID=%s, Amount=%.2f", project.ID.Hex(), project.OrderID, project.Amount)
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return getProject(ctx, s.projects, id)
}

// View returns the project the way the dashboard shows it.
func (s *ProjectService) View(ctx context.Context, id string) (*models.ProjectView, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.NewProjectView(*project, s.now())
	return &view, nil
}

// List filters on the displayed status, so asking for overdue returns
// pending projects whose expiry date has passed.
func (s *ProjectService) List(ctx context.Context, clientID *primitive.ObjectID, status *models.PaymentStatus) ([]models.ProjectView, error) {
	projects, err := s.projects.List(ctx, models.ProjectFilter{ClientID: clientID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]models.ProjectView, 0, len(projects))
	for _, p := range projects {
		view := models.NewProjectView(p, now)
		if status != nil && view.DisplayStatus != *status {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// Update applies an admin edit. Paid is reached only through a payment
// confirmation, so it is rejected as a target, and a paid project's status
// cannot be changed at all.
func (s *ProjectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*models.Project, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	changes := models.ProjectChanges{UpdatedAt: s.now()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		changes.Name = &name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		changes.Description = &description
	}
	if in.ClientID != nil {
		clientID, err := s.resolveClient(ctx, *in.ClientID)
		if err != nil {
			return nil, err
		}
		changes.ClientID = &clientID
	}
	if in.Amount != nil {
		amount, err := normalizeAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		changes.Amount = &amount
	}
	if in.ExpiryDate != nil {
		changes.ExpiryDate = in.ExpiryDate
	}
	if in.PaymentStatus != nil {
		status := *in.PaymentStatus
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, status)
		}
		if status == models.StatusPaid {
			return nil, fmt.Errorf("%w: paid is set by payment confirmation only", ErrInvalidInput)
		}
		changes.PaymentStatus = &status
	}

	project, err := s.projects.Update(ctx, objID, changes)
	if err != nil {
		if errors.Is(err, repository.ErrPaidLocked) {
			return nil, ErrAlreadyPaid
		}
		log.Printf("Failed to update project %s: %v", id, err)
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	return s.projects.Delete(ctx, objID)
}
