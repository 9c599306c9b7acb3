package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

func TestClientService(t *testing.T) {
	svc := NewClientService(newFakeClients())
	ctx := context.Background()

	if err := svc.Create(ctx, &models.Client{Name: "No contact"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("client without contact err = %v", err)
	}

	client := &models.Client{Name: " Acme ", Phone: "01911000000"}
	if err := svc.Create(ctx, client); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if client.ID.IsZero() || client.Name != "Acme" {
		t.Errorf("created = %+v", client)
	}

	update := &models.Client{Name: "Acme Ltd", Email: "billing@acme.test"}
	if err := svc.Update(ctx, client.ID.Hex(), update); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(ctx, client.ID.Hex())
	if err != nil || got.Name != "Acme Ltd" {
		t.Errorf("after update = %+v, %v", got, err)
	}

	if _, err := svc.Get(ctx, "not-an-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad id err = %v", err)
	}
}
