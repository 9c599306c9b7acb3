package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

// NotifyTimeout bounds a single paid SMS send.
const NotifyTimeout = 10 * time.Second

// Notifier tells a client by SMS that one of their projects has been paid.
// Delivery is best-effort: failures are logged and never returned.
type Notifier struct {
	clients repository.ClientRepository
	sms     func(models.SettingsSnapshot) (SMSSender, error)
}

func NewNotifier(clients repository.ClientRepository, sms func(models.SettingsSnapshot) (SMSSender, error)) *Notifier {
	return &Notifier{clients: clients, sms: sms}
}

func (n *Notifier) ProjectPaid(ctx context.Context, snap models.SettingsSnapshot, project *models.Project) {
	if n == nil || project == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	client, err := n.clients.GetByID(ctx, project.ClientID)
	if err != nil {
		log.Printf("Payment notification skipped for order %s: client lookup failed: %v", project.OrderID, err)
		return
	}
	if client.Phone == "" {
		log.Printf("Payment notification skipped for order %s: client %s has no phone number", project.OrderID, client.ID.Hex())
		return
	}

	sender, err := n.sms(snap)
	if err != nil {
		log.Printf("Payment notification skipped for order %s: %v", project.OrderID, err)
		return
	}
	if err := sender.Send(ctx, client.Phone, PaidMessage(client, project)); err != nil {
		log.Printf("Failed to send payment notification for order %s: %v", project.OrderID, err)
		return
	}
	log.Printf("Payment notification sent for order %s", project.OrderID)
}

func PaidMessage(client *models.Client, project *models.Project) string {
	amount := decimal.NewFromFloat(project.Amount).StringFixed(2)
	return fmt.Sprintf("Dear %s, we have received your payment of BDT %s for %s (order %s). Thank you.",
		client.Name, amount, project.Name, project.OrderID)
}
