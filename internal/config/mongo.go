package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// createIndexes sets up the regular indexes on the knowledge collection.
// The Atlas vector index on "embedding" is defined on the cluster itself and
// cannot be created through the driver.
func createIndexes(client *mongo.Client, cfg *Config) error {
	collection := client.Database(cfg.DBName).Collection(cfg.KnowledgeCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chunkId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "sourceType", Value: 1}, {Key: "sourceName", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sourceUrl", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(context.Background(), indexes)
	return err
}
