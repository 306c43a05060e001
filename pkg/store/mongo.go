package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists user records in a MongoDB `users` collection.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		collection: client.Database(database).Collection("users"),
	}
}

func (s *MongoStore) FindOrCreateUser(ctx context.Context, identity string) (*UserRecord, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user UserRecord
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"identity": identity},
		bson.M{"$setOnInsert": bson.M{
			"identity": identity,
			"nickname": "",
			"wins":     0,
			"losses":   0,
			"bean":     int64(DefaultBean),
		}},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) UpdateStats(ctx context.Context, identity string, won bool) error {
	field := "losses"
	if won {
		field = "wins"
	}
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"identity": identity},
		bson.M{"$inc": bson.M{field: 1}},
	)
	return err
}

func (s *MongoStore) UpdateBalance(ctx context.Context, identity string, delta int64) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"identity": identity},
		bson.M{"$inc": bson.M{"bean": delta}},
	)
	return err
}

func (s *MongoStore) UpdateNickname(ctx context.Context, identity, nickname string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"identity": identity},
		bson.M{"$set": bson.M{"nickname": nickname}},
	)
	return err
}
