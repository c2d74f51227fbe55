package document

import (
	"context"
	"fmt"

	mongostore "github.com/agile-crafts-people/impact-profile-api/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoDBExecutor adapts the store/mongodb adapter to the Executor contract.
type MongoDBExecutor struct {
	adapter *mongostore.Adapter
}

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(adapter *mongostore.Adapter) (*MongoDBExecutor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoDBExecutor{adapter: adapter}, nil
}

// InsertOne inserts a document into the collection and returns the
// store-assigned ObjectID.
func (e *MongoDBExecutor) InsertOne(ctx context.Context, collection string, doc bson.M) (primitive.ObjectID, error) {
	result, err := e.adapter.InsertOne(ctx, collection, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

// FindOne finds a single document matching the filter.
func (e *MongoDBExecutor) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	out := bson.M{}
	if err := e.adapter.FindOne(ctx, collection, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindOneAndUpdate applies the update to a single document matching the
// filter and returns the post-update document.
func (e *MongoDBExecutor) FindOneAndUpdate(ctx context.Context, collection string, filter bson.M, update bson.M) (bson.M, error) {
	out := bson.M{}
	if err := e.adapter.FindOneAndUpdate(ctx, collection, filter, update, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns up to limit documents matching the filter in sort order.
func (e *MongoDBExecutor) Find(ctx context.Context, collection string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	return e.adapter.Find(ctx, collection, filter, sort, limit)
}
