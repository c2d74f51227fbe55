// Package document provides the document-store query contract and the
// infinite-scroll query engine used by the resource services.
package document

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Executor defines the minimal document execution contract the service
// layer needs from a backing store. Single-document operations are
// assumed atomic at the store level; the engine adds no locking.
//
// FindOne and FindOneAndUpdate return mongo.ErrNoDocuments when no
// document matches the filter.
type Executor interface {
	// InsertOne inserts a document and returns its store-assigned identifier.
	InsertOne(ctx context.Context, collection string, doc bson.M) (primitive.ObjectID, error)

	// FindOne returns the first document matching the filter.
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error)

	// FindOneAndUpdate applies the update document to the first match and
	// returns the post-update document.
	FindOneAndUpdate(ctx context.Context, collection string, filter bson.M, update bson.M) (bson.M, error)

	// Find returns up to limit documents matching the filter in sort order.
	Find(ctx context.Context, collection string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error)
}
