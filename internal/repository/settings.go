package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context, provider string) (*models.Settings, error)
	All(ctx context.Context) ([]models.Settings, error)
	// Upsert merges values into the provider's bundle; keys not present in
	// values are left alone.
	Upsert(ctx context.Context, provider string, values map[string]string) error
}

type MongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(database *mongo.Database) *MongoSettingsRepository {
	return &MongoSettingsRepository{collection: database.Collection(db.SettingsCollection)}
}

func (r *MongoSettingsRepository) Get(ctx context.Context, provider string) (*models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var settings models.Settings
	if err := r.collection.FindOne(ctx, bson.M{"_id": provider}).Decode(&settings); err != nil {
		return nil, mapError(err)
	}
	return &settings, nil
}

func (r *MongoSettingsRepository) All(ctx context.Context) ([]models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var all []models.Settings
	if err := cur.All(ctx, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *MongoSettingsRepository) Upsert(ctx context.Context, provider string, values map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updated_at": time.Now()}
	for k, v := range values {
		set["values."+k] = v
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": provider}, bson.M{"$set": set},
		options.Update().SetUpsert(true))
	return err
}
