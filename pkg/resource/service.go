// Package resource implements the generic document CRUD service shared
// by all resources. A Service is parameterized by collection name and
// sort-field allow-list; the platform and user resources are two
// instances of the same implementation.
package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/agile-crafts-people/impact-profile-api/pkg/auth"
	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/agile-crafts-people/impact-profile-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AllowedSortFields is the sort-field allow-list shared by the platform
// and user resources.
var AllowedSortFields = []string{"name", "description", "status", "created.at_time", "saved.at_time"}

// restrictedFields are system-managed and may never appear in an update
// payload.
var restrictedFields = []string{"_id", "created", "saved"}

// Service provides create/read/list/update for one document resource.
type Service struct {
	collection        string
	allowedSortFields []string
	exec              document.Executor
	policy            auth.Policy
	logger            logger.Logger
}

// NewService creates a resource service bound to one collection.
func NewService(collection string, allowedSortFields []string, exec document.Executor, policy auth.Policy, log logger.Logger) *Service {
	return &Service{
		collection:        collection,
		allowedSortFields: allowedSortFields,
		exec:              exec,
		policy:            policy,
		logger:            log,
	}
}

// Collection returns the backing collection name.
func (s *Service) Collection() string {
	return s.collection
}

// Create inserts a new document and returns its store-assigned id.
//
// A client-supplied _id is silently dropped rather than rejected; the
// update path rejects the same field with an error. The asymmetry is
// intentional and preserved from the service's original behavior. The
// created and saved breadcrumbs are stamped from the caller's
// breadcrumb verbatim.
func (s *Service) Create(ctx context.Context, data bson.M, identity *auth.Identity, breadcrumb auth.Breadcrumb) (string, error) {
	if err := s.policy.Authorize(identity, auth.OperationCreate, s.collection); err != nil {
		return "", err
	}

	doc := make(bson.M, len(data)+2)
	for k, v := range data {
		doc[k] = v
	}
	delete(doc, "_id")
	doc["created"] = breadcrumb
	doc["saved"] = breadcrumb

	id, err := s.exec.InsertOne(ctx, s.collection, doc)
	if err != nil {
		s.logger.WithContext(ctx).Error("failed to create document",
			"collection", s.collection, "error", err)
		return "", controller.NewInternalError(fmt.Sprintf("failed to create %s document", s.collection), err)
	}

	s.logger.WithContext(ctx).Info("created document",
		"collection", s.collection, "id", id.Hex(), "user", identity.UserID)
	return id.Hex(), nil
}

// Get retrieves a document by id. An id that does not parse as a store
// identifier can never name a stored document, so it maps to not-found.
func (s *Service) Get(ctx context.Context, id string, identity *auth.Identity) (bson.M, error) {
	if err := s.policy.Authorize(identity, auth.OperationRead, s.collection); err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, s.notFound(id)
	}

	doc, err := s.exec.FindOne(ctx, s.collection, bson.M{"_id": objectID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.notFound(id)
		}
		s.logger.WithContext(ctx).Error("failed to retrieve document",
			"collection", s.collection, "id", id, "error", err)
		return nil, controller.NewInternalError(fmt.Sprintf("failed to retrieve %s document", s.collection), err)
	}

	return doc, nil
}

// List returns one infinite-scroll batch of sorted, filtered documents.
func (s *Service) List(ctx context.Context, params document.ScrollParams, identity *auth.Identity) (*document.Page, error) {
	if err := s.policy.Authorize(identity, auth.OperationRead, s.collection); err != nil {
		return nil, err
	}

	page, err := document.ExecuteScroll(ctx, s.exec, s.collection, params, s.allowedSortFields)
	if err != nil {
		var appErr *controller.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.logger.WithContext(ctx).Error("failed to list documents",
			"collection", s.collection, "error", err)
		return nil, controller.NewInternalError(fmt.Sprintf("failed to retrieve %s documents", s.collection), err)
	}

	s.logger.WithContext(ctx).Info("retrieved documents",
		"collection", s.collection, "count", len(page.Items), "has_more", page.HasMore, "user", identity.UserID)
	return page, nil
}

// Update applies a partial field-set to a document and returns the full
// post-update document. Payloads naming a system-managed field are
// rejected before any store access. The saved breadcrumb is force-set
// from the caller's breadcrumb.
func (s *Service) Update(ctx context.Context, id string, data bson.M, identity *auth.Identity, breadcrumb auth.Breadcrumb) (bson.M, error) {
	if err := s.policy.Authorize(identity, auth.OperationUpdate, s.collection); err != nil {
		return nil, err
	}

	for _, field := range restrictedFields {
		if _, present := data[field]; present {
			return nil, controller.NewForbiddenError(fmt.Sprintf("cannot update %s field", field))
		}
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, s.notFound(id)
	}

	// Restricted fields were rejected above; stripping them again keeps
	// the set clause safe even if the list grows.
	set := make(bson.M, len(data)+1)
	for k, v := range data {
		set[k] = v
	}
	for _, field := range restrictedFields {
		delete(set, field)
	}
	set["saved"] = breadcrumb

	doc, err := s.exec.FindOneAndUpdate(ctx, s.collection, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.notFound(id)
		}
		s.logger.WithContext(ctx).Error("failed to update document",
			"collection", s.collection, "id", id, "error", err)
		return nil, controller.NewInternalError(fmt.Sprintf("failed to update %s document", s.collection), err)
	}

	s.logger.WithContext(ctx).Info("updated document",
		"collection", s.collection, "id", id, "user", identity.UserID)
	return doc, nil
}

func (s *Service) notFound(id string) error {
	return controller.NewNotFoundError(fmt.Sprintf("%s %s not found", s.collection, id))
}
