package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

type ClientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func validateClient(client *models.Client) error {
	client.Name = strings.TrimSpace(client.Name)
	client.Email = strings.TrimSpace(client.Email)
	client.Phone = strings.TrimSpace(client.Phone)
	if client.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if client.Email == "" && client.Phone == "" {
		return fmt.Errorf("%w: email or phone is required", ErrInvalidInput)
	}
	return nil
}

func (s *ClientService) Create(ctx context.Context, client *models.Client) error {
	if err := validateClient(client); err != nil {
		return err
	}
	client.ID = primitive.NewObjectID()
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	return s.clients.Create(ctx, client)
}

func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.clients.GetByID(ctx, objID)
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	return s.clients.List(ctx)
}

func (s *ClientService) Update(ctx context.Context, id string, client *models.Client) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if err := validateClient(client); err != nil {
		return err
	}
	client.ID = objID
	client.UpdatedAt = time.Now()
	return s.clients.Update(ctx, client)
}

func (s *ClientService) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	return s.clients.Delete(ctx, objID)
}
