package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User model
type User struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName  string              `bson:"fullname" json:"fullname"`
	Email     string              `bson:"email" json:"email"`
	Role      string              `bson:"role" json:"role"`
	ClientID  *primitive.ObjectID `bson:"client_id,omitempty" json:"client_id,omitempty"`
	HPassword string              `bson:"password" json:"-"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
