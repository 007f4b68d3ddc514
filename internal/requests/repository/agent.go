package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"imovia/pkg/config"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

const (
	AgentCollectionName = "Agents"
)

type AgentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Agent, error)
}

type mongoAgentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAgentRepository(cfg *config.Config) AgentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAgentRepository{
		cfg:        cfg,
		collection: db.Collection(AgentCollectionName),
	}
}

func (r *mongoAgentRepository) FindByID(ctx context.Context, id string) (*model.Agent, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", requesterrors.ErrInvalidID, id)
	}

	var agent model.Agent
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, requesterrors.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}

	return &agent, nil
}
