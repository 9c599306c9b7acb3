package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is the customer that owns projects and receives payment notifications.
type Client struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	Company   string             `bson:"company" json:"company"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
