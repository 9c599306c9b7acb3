package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

type PaymentEventRepository interface {
	Insert(ctx context.Context, event *models.PaymentEvent) error
	ListByOrder(ctx context.Context, orderID string) ([]models.PaymentEvent, error)
}

type MongoPaymentEventRepository struct {
	collection *mongo.Collection
}

func NewPaymentEventRepository(database *mongo.Database) *MongoPaymentEventRepository {
	return &MongoPaymentEventRepository{collection: database.Collection(db.PaymentEventsCollection)}
}

func (r *MongoPaymentEventRepository) Insert(ctx context.Context, event *models.PaymentEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *MongoPaymentEventRepository) ListByOrder(ctx context.Context, orderID string) ([]models.PaymentEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := r.collection.Find(ctx, bson.M{"order_id": orderID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.PaymentEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
