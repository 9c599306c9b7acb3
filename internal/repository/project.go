package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	// Update applies an admin edit and returns the stored result. A status
	// change never applies to a paid project and yields ErrPaidLocked.
	Update(ctx context.Context, id primitive.ObjectID, changes models.ProjectChanges) (*models.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// MarkPaid moves the project with orderID to paid unless it already is.
	// The returned bool is true only for the call that performed the
	// transition.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*models.Project, bool, error)
}

type MongoProjectRepository struct {
	collection *mongo.Collection
}

func NewProjectRepository(database *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{collection: database.Collection(db.ProjectsCollection)}
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *models.Project) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, project); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *MongoProjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoProjectRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Project, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID})
}

func (r *MongoProjectRepository) findOne(ctx context.Context, filter bson.M) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var project models.Project
	if err := r.collection.FindOne(ctx, filter).Decode(&project); err != nil {
		return nil, mapError(err)
	}
	return &project, nil
}

func (r *MongoProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.ClientID != nil {
		query["client_id"] = *filter.ClientID
	}

	cur, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		log.Printf("Failed to fetch projects: %v", err)
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	defer cur.Close(ctx)

	projects := []models.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		log.Printf("Failed to decode projects: %v", err)
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (r *MongoProjectRepository) Update(ctx context.Context, id primitive.ObjectID, changes models.ProjectChanges) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Only the given fields are set, so an edit never writes back a
	// payment_status read before a concurrent MarkPaid.
	filter := bson.M{"_id": id}
	set := bson.M{"updated_at": changes.UpdatedAt}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.ClientID != nil {
		set["client_id"] = *changes.ClientID
	}
	if changes.Amount != nil {
		set["amount"] = *changes.Amount
	}
	if changes.ExpiryDate != nil {
		set["expiry_date"] = *changes.ExpiryDate
	}
	if changes.PaymentStatus != nil {
		set["payment_status"] = *changes.PaymentStatus
		filter["payment_status"] = bson.M{"$ne": models.StatusPaid}
	}

	var project models.Project
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&project)
	if err == nil {
		return &project, nil
	}
	if err != mongo.ErrNoDocuments {
		log.Printf("Failed to update project %s: %v", id.Hex(), err)
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if _, err := r.findOne(ctx, bson.M{"_id": id}); err != nil {
		return nil, err
	}
	return nil, ErrPaidLocked
}

func (r *MongoProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProjectRepository) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*models.Project, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// The status predicate makes this a compare-and-set: of several
	// concurrent confirmations only one matches a not-yet-paid document.
	filter := bson.M{
		"order_id":       orderID,
		"payment_status": bson.M{"$ne": models.StatusPaid},
	}
	update := bson.M{"$set": bson.M{
		"payment_status": models.StatusPaid,
		"paid_at":        paidAt,
		"updated_at":     paidAt,
	}}

	var project models.Project
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&project)
	if err == nil {
		return &project, true, nil
	}
	if err != mongo.ErrNoDocuments {
		log.Printf("Failed to mark order %s paid: %v", orderID, err)
		return nil, false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	existing, err := r.findOne(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
