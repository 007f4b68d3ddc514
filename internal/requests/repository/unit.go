package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"imovia/pkg/config"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

const (
	UnitCollectionName = "Units"
)

// UnitRepository is the engine's narrow view of the catalog store: read a
// unit, and claim its availability flag at reservation approval. Nothing
// here ever sets the flag back to true.
type UnitRepository interface {
	FindByID(ctx context.Context, id string) (*model.Unit, error)
	Claim(ctx context.Context, id string) (bool, error)
}

type mongoUnitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUnitRepository(cfg *config.Config) UnitRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUnitRepository{
		cfg:        cfg,
		collection: db.Collection(UnitCollectionName),
	}
}

func (r *mongoUnitRepository) FindByID(ctx context.Context, id string) (*model.Unit, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	var unit model.Unit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&unit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, requesterrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to find unit: %w", err)
	}

	return &unit, nil
}

// Claim conditionally flips is_available from true to false. The filter on
// the current value makes concurrent claims serialize at the store: exactly
// one caller matches, every other caller gets false. Run inside the approval
// transaction so a failed status write rolls the flip back.
func (r *mongoUnitRepository) Claim(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "is_available": true}
	update := bson.M{"$set": bson.M{
		"is_available": false,
		"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim unit: %w", err)
	}

	return result.MatchedCount > 0, nil
}
