package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway"
	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/bkash"
	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/piprapay"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
	"github.com/markjakearzadon/projectpay-gobackend/internal/sms"
)

// Messages shown on the payment failure page.
const (
	MessageCancelled  = "Payment cancelled by user"
	MessageFailed     = "Payment failed, please try again"
	MessageGeneric    = "Payment could not be completed"
	MessageIncomplete = "Payment was not completed"
)

type BkashGateway interface {
	CreatePayment(ctx context.Context, req bkash.PaymentRequest) (*bkash.CreatePaymentResult, error)
	ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecuteResult, error)
}

type PiprapayGateway interface {
	CreateCharge(ctx context.Context, req piprapay.ChargeRequest) piprapay.ChargeResult
	VerifyPayment(ctx context.Context, invoiceID string) piprapay.VerifyResult
}

type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// Gateways builds provider clients from a settings snapshot. A factory
// returns a *gateway.ConfigurationError when credentials are missing.
type Gateways struct {
	Bkash    func(models.SettingsSnapshot) (BkashGateway, error)
	Piprapay func(models.SettingsSnapshot) (PiprapayGateway, error)
	SMS      func(models.SettingsSnapshot) (SMSSender, error)
}

func DefaultGateways(httpClient *http.Client) Gateways {
	return Gateways{
		Bkash: func(snap models.SettingsSnapshot) (BkashGateway, error) {
			cfg, err := bkash.ConfigFromSettings(snap.Provider(models.ProviderBkash))
			if err != nil {
				return nil, err
			}
			return bkash.NewClient(cfg, httpClient), nil
		},
		Piprapay: func(snap models.SettingsSnapshot) (PiprapayGateway, error) {
			cfg, err := piprapay.ConfigFromSettings(snap.Provider(models.ProviderPiprapay))
			if err != nil {
				return nil, err
			}
			return piprapay.NewClient(cfg, httpClient), nil
		},
		SMS: func(snap models.SettingsSnapshot) (SMSSender, error) {
			cfg, err := sms.ConfigFromSettings(snap.Provider(models.ProviderSMS))
			if err != nil {
				return nil, err
			}
			return sms.NewClient(cfg, httpClient), nil
		},
	}
}

type SettingsProvider interface {
	Snapshot(ctx context.Context) (models.SettingsSnapshot, error)
}

// Outcome is the result of a synchronous confirmation. Failure is empty on
// success and otherwise holds the message for the failure page.
type Outcome struct {
	ProjectID string
	Failure   string
}

func (o Outcome) Success() bool {
	return o.Failure == ""
}

func failed(message string) Outcome {
	return Outcome{Failure: message}
}

// PaymentService starts payments and reconciles every notification the
// gateways send back. A project moves to paid at most once; only the
// notification that performs the move sends the SMS.
type PaymentService struct {
	settings SettingsProvider
	projects repository.ProjectRepository
	clients  repository.ClientRepository
	events   repository.PaymentEventRepository
	gateways Gateways
	notifier *Notifier
	baseURL  string
	now      func() time.Time
}

func NewPaymentService(
	settings SettingsProvider,
	projects repository.ProjectRepository,
	clients repository.ClientRepository,
	events repository.PaymentEventRepository,
	gateways Gateways,
	notifier *Notifier,
	publicBaseURL string,
) *PaymentService {
	return &PaymentService{
		settings: settings,
		projects: projects,
		clients:  clients,
		events:   events,
		gateways: gateways,
		notifier: notifier,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		now:      time.Now,
	}
}

// payableProject loads a project the caller may pay for.
func (s *PaymentService) payableProject(ctx context.Context, principal *Principal, projectID string) (*models.Project, *models.Client, error) {
	project, err := getProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !principal.CanAccess(project) {
		return nil, nil, ErrForbidden
	}
	if project.PaymentStatus == models.StatusPaid {
		return nil, nil, ErrAlreadyPaid
	}
	client, err := s.clients.GetByID(ctx, project.ClientID)
	if err != nil {
		log.Printf("Failed to load client %s for project %s: %v", project.ClientID.Hex(), projectID, err)
		return nil, nil, fmt.Errorf("failed to load client: %w", err)
	}
	return project, client, nil
}

// StartBkashPayment creates a bKash checkout for the project and returns the
// URL the customer must be sent to.
func (s *PaymentService) StartBkashPayment(ctx context.Context, principal *Principal, projectID string) (string, error) {
	project, client, err := s.payableProject(ctx, principal, projectID)
	if err != nil {
		return "", err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	gw, err := s.gateways.Bkash(snap)
	if err != nil {
		log.Printf("bKash unavailable: %v", err)
		return "", err
	}

	payer := client.Phone
	if payer == "" {
		payer = uuid.NewString()
	}
	result, err := gw.CreatePayment(ctx, bkash.PaymentRequest{
		Amount:         project.Amount,
		OrderID:        project.OrderID,
		PayerReference: payer,
		CallbackURL:    s.baseURL + "/bkash/callback",
	})
	if err != nil {
		log.Printf("Failed to create bKash payment for order %s: %v", project.OrderID, err)
		return "", err
	}
	log.Printf("bKash payment created: OrderID=%s, PaymentID=%s", project.OrderID, result.PaymentID)
	return result.RedirectURL, nil
}

// StartPiprapayPayment creates a PipraPay charge for the project and returns
// the hosted payment page.
func (s *PaymentService) StartPiprapayPayment(ctx context.Context, principal *Principal, projectID string) (string, error) {
	project, client, err := s.payableProject(ctx, principal, projectID)
	if err != nil {
		return "", err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	gw, err := s.gateways.Piprapay(snap)
	if err != nil {
		log.Printf("PipraPay unavailable: %v", err)
		return "", err
	}

	contact := client.Email
	if contact == "" {
		contact = client.Phone
	}
	result := gw.CreateCharge(ctx, piprapay.ChargeRequest{
		Amount:      project.Amount,
		Customer:    piprapay.Customer{FullName: client.Name, EmailOrMobile: contact},
		Metadata:    map[string]string{"orderId": project.OrderID},
		RedirectURL: s.baseURL + "/piprapay/return",
		CancelURL:   s.baseURL + "/piprapay/return?status=cancel",
		WebhookURL:  s.baseURL + "/piprapay/webhook",
	})

	switch r := result.(type) {
	case piprapay.ChargeSuccess:
		log.Printf("PipraPay charge created: OrderID=%s, InvoiceID=%s", project.OrderID, r.InvoiceID)
		return r.URL, nil
	case piprapay.ChargeFailed:
		log.Printf("PipraPay charge failed for order %s: %s", project.OrderID, r.Message)
		return "", &gateway.GatewayError{Provider: piprapay.Provider, Op: "create charge", StatusCode: r.StatusCode, Message: r.Message}
	case piprapay.ChargeMalformed:
		log.Printf("PipraPay charge response for order %s has no payment URL: %s", project.OrderID, gateway.MaskSensitiveFields([]byte(r.RawBody)))
		return "", &gateway.GatewayError{Provider: piprapay.Provider, Op: "create charge", Message: "no payment URL in response"}
	default:
		return "", fmt.Errorf("unexpected charge result %T", result)
	}
}

// HandleBkashCallback reconciles the customer's return from bKash checkout.
func (s *PaymentService) HandleBkashCallback(ctx context.Context, paymentID, status string) Outcome {
	switch status {
	case "success":
	case "cancel":
		s.record(ctx, bkash.Provider, models.ChannelCallback, "", paymentID, models.OutcomeRejected, "cancelled", nil)
		return failed(MessageCancelled)
	case "failure":
		s.record(ctx, bkash.Provider, models.ChannelCallback, "", paymentID, models.OutcomeRejected, "failure", nil)
		return failed(MessageFailed)
	default:
		s.record(ctx, bkash.Provider, models.ChannelCallback, "", paymentID, models.OutcomeRejected, "status "+status, nil)
		return failed(MessageGeneric)
	}
	if paymentID == "" {
		return failed(MessageGeneric)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return failed(MessageGeneric)
	}
	gw, err := s.gateways.Bkash(snap)
	if err != nil {
		log.Printf("bKash unavailable for callback %s: %v", paymentID, err)
		return failed(MessageGeneric)
	}

	result, err := gw.ExecutePayment(ctx, paymentID)
	if err != nil {
		log.Printf("bKash execute failed for payment %s: %v", paymentID, err)
		s.record(ctx, bkash.Provider, models.ChannelCallback, "", paymentID, models.OutcomeFailed, err.Error(), nil)
		return failed(customerMessage(err))
	}
	if !result.Confirmed() {
		log.Printf("bKash payment %s not confirmed: statusCode=%s transactionStatus=%s", paymentID, result.StatusCode, result.TransactionStatus)
		s.record(ctx, bkash.Provider, models.ChannelCallback, result.MerchantInvoiceNumber, paymentID, models.OutcomeRejected, result.StatusMessage, result.Raw)
		if result.StatusMessage != "" {
			return failed(result.StatusMessage)
		}
		return failed(MessageFailed)
	}

	project, err := s.confirm(ctx, snap, bkash.Provider, models.ChannelCallback, result.MerchantInvoiceNumber, paymentID, result.Raw)
	if err != nil {
		return failed(MessageGeneric)
	}
	return Outcome{ProjectID: project.ID.Hex()}
}

// HandlePiprapayReturn reconciles the customer's return from the PipraPay
// payment page by verifying the invoice with the provider.
func (s *PaymentService) HandlePiprapayReturn(ctx context.Context, invoiceID, status string) Outcome {
	if status == "cancel" {
		s.record(ctx, piprapay.Provider, models.ChannelReturn, "", invoiceID, models.OutcomeRejected, "cancelled", nil)
		return failed(MessageCancelled)
	}
	if invoiceID == "" {
		return failed(MessageGeneric)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return failed(MessageGeneric)
	}
	gw, err := s.gateways.Piprapay(snap)
	if err != nil {
		log.Printf("PipraPay unavailable for return %s: %v", invoiceID, err)
		return failed(MessageGeneric)
	}

	result := gw.VerifyPayment(ctx, invoiceID)
	if !result.OK {
		log.Printf("PipraPay verification failed for invoice %s: %s", invoiceID, result.Message)
		s.record(ctx, piprapay.Provider, models.ChannelReturn, "", invoiceID, models.OutcomeFailed, result.Message, result.Payload)
		return failed(MessageGeneric)
	}
	if !result.Completed() {
		log.Printf("PipraPay invoice %s not completed: status=%s", invoiceID, result.Status)
		s.record(ctx, piprapay.Provider, models.ChannelReturn, "", invoiceID, models.OutcomeRejected, "status "+result.Status, result.Payload)
		return failed(MessageIncomplete)
	}

	orderID, err := s.resolveOrderID(ctx, result.Metadata, invoiceID)
	if err != nil {
		s.record(ctx, piprapay.Provider, models.ChannelReturn, "", invoiceID, models.OutcomeNotFound, err.Error(), result.Payload)
		return failed(MessageGeneric)
	}
	project, err := s.confirm(ctx, snap, piprapay.Provider, models.ChannelReturn, orderID, invoiceID, result.Payload)
	if err != nil {
		return failed(MessageGeneric)
	}
	return Outcome{ProjectID: project.ID.Hex()}
}

// HandlePiprapayWebhook processes an asynchronous PipraPay notification.
// It returns ErrUnauthorized when the presented key does not match the
// configured webhook key, ErrInvalidInput for an unreadable payload and
// ErrNotFound when the order is unknown. Deliveries that are not completed
// payments are acknowledged without effect.
func (s *PaymentService) HandlePiprapayWebhook(ctx context.Context, presentedKey, remoteAddr string, body []byte) error {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !piprapay.VerifyWebhookKey(presentedKey, snap.Get(models.ProviderPiprapay, "webhook_key")) {
		log.Printf("WARNING: PipraPay webhook rejected, invalid key from %s", remoteAddr)
		return ErrUnauthorized
	}

	event, err := piprapay.ParseWebhook(body)
	if err != nil {
		log.Printf("PipraPay webhook from %s: %v", remoteAddr, err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if event.Status != piprapay.StatusCompleted {
		log.Printf("PipraPay webhook for invoice %s ignored: status=%s", event.InvoiceID, event.Status)
		s.record(ctx, piprapay.Provider, models.ChannelWebhook, event.Metadata["orderId"], event.InvoiceID, models.OutcomeRejected, "status "+event.Status, body)
		return nil
	}

	orderID, err := s.resolveOrderID(ctx, event.Metadata, event.InvoiceID)
	if err != nil {
		s.record(ctx, piprapay.Provider, models.ChannelWebhook, "", event.InvoiceID, models.OutcomeNotFound, err.Error(), body)
		return err
	}
	if _, err := s.confirm(ctx, snap, piprapay.Provider, models.ChannelWebhook, orderID, event.InvoiceID, body); err != nil {
		return err
	}
	return nil
}

// VerifyPiprapay passes a verification request through to PipraPay. The
// error is non-nil only when PipraPay is not configured.
func (s *PaymentService) VerifyPiprapay(ctx context.Context, invoiceID string) (piprapay.VerifyResult, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return piprapay.VerifyResult{}, fmt.Errorf("%w: invoice_id is required", ErrInvalidInput)
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return piprapay.VerifyResult{}, err
	}
	gw, err := s.gateways.Piprapay(snap)
	if err != nil {
		return piprapay.VerifyResult{}, err
	}
	return gw.VerifyPayment(ctx, invoiceID), nil
}

// resolveOrderID finds the order a PipraPay payment belongs to. Charges
// carry metadata.orderId; older charges carried metadata.projectId instead.
// Without metadata the invoice id is taken to be the order id.
func (s *PaymentService) resolveOrderID(ctx context.Context, metadata map[string]string, invoiceID string) (string, error) {
	if orderID := strings.TrimSpace(metadata["orderId"]); orderID != "" {
		return orderID, nil
	}
	if projectID := strings.TrimSpace(metadata["projectId"]); projectID != "" {
		project, err := getProject(ctx, s.projects, projectID)
		if err != nil {
			log.Printf("PipraPay metadata names unknown project %s", projectID)
			return "", err
		}
		return project.OrderID, nil
	}
	if invoiceID == "" {
		return "", fmt.Errorf("%w: payment carries no order reference", ErrInvalidInput)
	}
	return invoiceID, nil
}

// confirm marks the order paid. The SMS goes out only when this call made
// the transition; a repeat confirmation returns the project unchanged.
func (s *PaymentService) confirm(ctx context.Context, snap models.SettingsSnapshot, provider, channel, orderID, paymentRef string, payload []byte) (*models.Project, error) {
	if orderID == "" {
		s.record(ctx, provider, channel, "", paymentRef, models.OutcomeNotFound, "empty order id", payload)
		return nil, ErrNotFound
	}

	project, transitioned, err := s.projects.MarkPaid(ctx, orderID, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("No project for order %s (%s %s)", orderID, provider, channel)
			s.record(ctx, provider, channel, orderID, paymentRef, models.OutcomeNotFound, "", payload)
			return nil, ErrNotFound
		}
		log.Printf("Failed to mark order %s paid: %v", orderID, err)
		s.record(ctx, provider, channel, orderID, paymentRef, models.OutcomeFailed, err.Error(), payload)
		return nil, err
	}

	if !transitioned {
		log.Printf("Order %s already paid, %s %s ignored", orderID, provider, channel)
		s.record(ctx, provider, channel, orderID, paymentRef, models.OutcomeAlreadyPaid, "", payload)
		return project, nil
	}

	log.Printf("Order %s marked paid via %s %s (ref %s)", orderID, provider, channel, paymentRef)
	s.record(ctx, provider, channel, orderID, paymentRef, models.OutcomeTransitioned, "", payload)
	s.notifier.ProjectPaid(ctx, snap, project)
	return project, nil
}

// record appends to the payment event log. A failed write is logged only.
func (s *PaymentService) record(ctx context.Context, provider, channel, orderID, paymentRef, outcome, message string, payload []byte) {
	if s.events == nil {
		return
	}
	event := &models.PaymentEvent{
		Provider:   provider,
		Channel:    channel,
		OrderID:    orderID,
		PaymentRef: paymentRef,
		Outcome:    outcome,
		Message:    message,
		CreatedAt:  s.now(),
	}
	if len(payload) > 0 {
		event.Payload = string(gateway.MaskSensitiveFields(payload))
	}
	if err := s.events.Insert(ctx, event); err != nil {
		log.Printf("Failed to record payment event for order %s: %v", orderID, err)
	}
}

func (s *PaymentService) Events(ctx context.Context, orderID string) ([]models.PaymentEvent, error) {
	return s.events.ListByOrder(ctx, orderID)
}

// customerMessage picks what the failure page may show for err. Provider
// messages are passed on only when the provider itself sent them.
func customerMessage(err error) string {
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) && gwErr.StatusCode == 0 && gwErr.Message != "" {
		return gwErr.Message
	}
	return MessageGeneric
}

func getProject(ctx context.Context, projects repository.ProjectRepository, id string) (*models.Project, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return projects.GetByID(ctx, objID)
}
