package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ChannelCallback = "callback"
	ChannelReturn   = "return"
	ChannelWebhook  = "webhook"
)

const (
	OutcomeTransitioned = "transitioned"
	OutcomeAlreadyPaid  = "already_paid"
	OutcomeNotFound     = "not_found"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
)

// PaymentEvent records every gateway notification the reconciler handled.
type PaymentEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Provider   string             `bson:"provider" json:"provider"`
	Channel    string             `bson:"channel" json:"channel"`
	OrderID    string             `bson:"order_id" json:"order_id"`
	PaymentRef string             `bson:"payment_ref" json:"payment_ref"`
	Outcome    string             `bson:"outcome" json:"outcome"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Payload    string             `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
