package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"imovia/pkg/config"
	mongotx "imovia/pkg/db/mongo"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

const (
	VisitCollectionName = "Visit_requests"
)

type VisitRequestRepository interface {
	Create(ctx context.Context, req *model.VisitRequest) error
	FindByID(ctx context.Context, id string) (*model.VisitRequest, error)
	FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, error)
	CountByClient(ctx context.Context, clientID string) (int64, error)
	CountLive(ctx context.Context, clientID, propertyID string) (int64, error)
	ApplyDecision(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error)
	DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoVisitRequestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoVisitRequestRepository(cfg *config.Config) VisitRequestRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitRequestRepository{
		cfg:        cfg,
		collection: db.Collection(VisitCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it is already a
// transaction session context, which must not be re-wrapped.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVisitRequestRepository) Create(ctx context.Context, req *model.VisitRequest) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	req.CreatedAt = now
	req.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create visit request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVisitRequestRepository) FindByID(ctx context.Context, id string) (*model.VisitRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	var req model.VisitRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, requesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visit request: %w", err)
	}

	return &req, nil
}

func (r *mongoVisitRequestRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visit requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*model.VisitRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode visit requests: %w", err)
	}

	return requests, nil
}

func (r *mongoVisitRequestRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return 0, fmt.Errorf("failed to count visit requests: %w", err)
	}
	return count, nil
}

// CountLive counts requests that still hold the client's one-live-request
// slot for the property (status pending or approved).
func (r *mongoVisitRequestRepository) CountLive(ctx context.Context, clientID, propertyID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"client_id":   clientID,
		"property_id": propertyID,
		"status":      bson.M{"$in": model.LiveVisitStatuses},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count live visit requests: %w", err)
	}
	return count, nil
}

// ApplyDecision writes the admin decision with a conditional update on the
// current status. A false return means no document matched: the request is
// gone or no longer in the expected state.
func (r *mongoVisitRequestRepository) ApplyDecision(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     decision.Status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if decision.ScheduledSlot != nil {
		set["scheduled_slot"] = *decision.ScheduledSlot
	}
	if decision.AgentID != "" {
		set["assigned_agent_id"] = decision.AgentID
	}
	if decision.ClientMsg != "" {
		set["client_msg"] = decision.ClientMsg
	}
	if decision.AgentMsg != "" {
		set["agent_msg"] = decision.AgentMsg
	}

	filter := bson.M{"_id": objectID, "status": from}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update visit request: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// DeleteOwnPending removes the request only while it is still pending and
// owned by clientID. A false return means the request is gone or an admin
// decision won the race; the caller re-reads to classify.
func (r *mongoVisitRequestRepository) DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "client_id": clientID, "status": model.VisitPending}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete visit request: %w", err)
	}

	return result.DeletedCount > 0, nil
}

func (r *mongoVisitRequestRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
