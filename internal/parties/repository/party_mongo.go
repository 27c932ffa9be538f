package repository

import (
	"context"
	"errors"
	"fmt"

	"consultly/pkg/config"
	"consultly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPartyRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPartyRepository(cfg *config.Config) PartyRepository {
	return &mongoPartyRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(UsersCollection),
	}
}

func (r *mongoPartyRepository) FindByID(ctx context.Context, id string) (*model.Party, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var party model.Party
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&party)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find party: %w", err)
	}
	return &party, nil
}

func (r *mongoPartyRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.Party, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer cursor.Close(ctx)

	parties := []*model.Party{}
	if err := cursor.All(ctx, &parties); err != nil {
		return nil, fmt.Errorf("failed to decode parties: %w", err)
	}
	return parties, nil
}

func (r *mongoPartyRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.collection.Database().Client().Ping(ctx, nil)
}
