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
	ReservationCollectionName = "Reservation_requests"
)

type ReservationRequestRepository interface {
	Create(ctx context.Context, req *model.ReservationRequest) error
	FindByID(ctx context.Context, id string) (*model.ReservationRequest, error)
	FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, error)
	CountByClient(ctx context.Context, clientID string) (int64, error)
	CountLive(ctx context.Context, clientID, unitID string) (int64, error)
	ApplyTransition(ctx context.Context, id string, from []model.ReservationStatus, decision *model.ReservationDecision) (bool, error)
	DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRequestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRequestRepository(cfg *config.Config) ReservationRequestRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRequestRepository{
		cfg:        cfg,
		collection: db.Collection(ReservationCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRequestRepository) Create(ctx context.Context, req *model.ReservationRequest) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	req.CreatedAt = now
	req.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create reservation request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRequestRepository) FindByID(ctx context.Context, id string) (*model.ReservationRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	var req model.ReservationRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, requesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation request: %w", err)
	}

	return &req, nil
}

func (r *mongoReservationRequestRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*model.ReservationRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode reservation requests: %w", err)
	}

	return requests, nil
}

func (r *mongoReservationRequestRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return 0, fmt.Errorf("failed to count reservation requests: %w", err)
	}
	return count, nil
}

// CountLive counts requests that still hold the client's one-live-request
// slot for the unit (status pending or approved).
func (r *mongoReservationRequestRepository) CountLive(ctx context.Context, clientID, unitID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"client_id": clientID,
		"unit_id":   unitID,
		"status":    bson.M{"$in": model.LiveReservationStatuses},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count live reservation requests: %w", err)
	}
	return count, nil
}

// ApplyTransition writes the decision with a conditional update on the
// current status. A false return means no document matched the expected
// states: the request is gone or another transition won the race.
func (r *mongoReservationRequestRepository) ApplyTransition(ctx context.Context, id string, from []model.ReservationStatus, decision *model.ReservationDecision) (bool, error) {
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
	if decision.AgentID != "" {
		set["assigned_agent_id"] = decision.AgentID
	}
	if decision.ClientMsg != "" {
		set["client_msg"] = decision.ClientMsg
	}
	if decision.AgentMsg != "" {
		set["agent_msg"] = decision.AgentMsg
	}

	filter := bson.M{"_id": objectID, "status": bson.M{"$in": from}}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update reservation request: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// DeleteOwnPending removes the request only while it is still pending and
// owned by clientID. A false return means the request is gone or an admin
// decision won the race; the caller re-reads to classify.
func (r *mongoReservationRequestRepository) DeleteOwnPending(ctx context.Context, id, clientID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "client_id": clientID, "status": model.ReservationPending}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation request: %w", err)
	}

	return result.DeletedCount > 0, nil
}

func (r *mongoReservationRequestRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
