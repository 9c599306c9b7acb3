package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Project is a billable unit of work for a client. OrderID is the invoice
// number handed to the payment gateways and is unique across projects.
type Project struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	OrderID       string             `bson:"order_id" json:"order_id"`
	ClientID      primitive.ObjectID `bson:"client_id" json:"client_id"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentStatus PaymentStatus      `bson:"payment_status" json:"payment_status"`
	ExpiryDate    time.Time          `bson:"expiry_date" json:"expiry_date"`
	PaidAt        *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// EffectiveStatus is the status shown to users. Overdue is never stored by
// the payment flow, it is derived from the expiry date.
func (p *Project) EffectiveStatus(now time.Time) PaymentStatus {
	if p.PaymentStatus == StatusPaid {
		return StatusPaid
	}
	if !p.ExpiryDate.IsZero() && now.After(p.ExpiryDate) {
		return StatusOverdue
	}
	return p.PaymentStatus
}

// ProjectView is a project as rendered on the dashboard.
type ProjectView struct {
	Project
	DisplayStatus PaymentStatus `json:"display_status"`
}

func NewProjectView(p Project, now time.Time) ProjectView {
	return ProjectView{Project: p, DisplayStatus: p.EffectiveStatus(now)}
}

type ProjectFilter struct {
	ClientID *primitive.ObjectID
}

// ProjectChanges is an admin edit. Only non-nil fields are written.
type ProjectChanges struct {
	Name          *string
	Description   *string
	ClientID      *primitive.ObjectID
	Amount        *float64
	ExpiryDate    *time.Time
	PaymentStatus *PaymentStatus
	UpdatedAt     time.Time
}
