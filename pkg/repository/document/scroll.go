package document

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scroll parameter bounds and defaults.
const (
	MinLimit      = 1
	MaxLimit      = 100
	DefaultLimit  = 10
	DefaultSortBy = "name"
)

// ScrollParams carries client-supplied list parameters for one scroll batch.
//
// Name is a case-insensitive substring filter on the document "name"
// field. AfterID is the opaque resume cursor: the identifier of the
// last item from the previous batch, empty on the first call. Callers
// own the Limit default; SortBy and Order fall back to "name"/"asc"
// when empty.
type ScrollParams struct {
	Name    string
	AfterID string
	Limit   int
	SortBy  string
	Order   SortOrder
}

// Page is the result of one scroll batch. NextCursor is nil when the
// collection is exhausted.
type Page struct {
	Items      []bson.M `json:"items"`
	Limit      int      `json:"limit"`
	HasMore    bool     `json:"has_more"`
	NextCursor *string  `json:"next_cursor"`
}

// BuildScrollQuery validates the scroll parameters against the
// per-resource sort-field allow-list and constructs the store filter
// and sort documents. All validation happens here, before any store
// access; each failure is a validation error naming the parameter.
//
// The cursor predicate restricts to documents whose identifier sorts
// strictly after AfterID under the identifier's own natural order, not
// the requested sort field. Identifiers are issued monotonically, so
// every batch advances the cursor and a scroll always terminates. The
// sort carries an _id ascending tie-break so rows with equal sort-field
// values paginate deterministically.
func BuildScrollQuery(params ScrollParams, allowedSortFields []string) (bson.M, bson.D, error) {
	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	order := params.Order
	if order == "" {
		order = SortAsc
	}

	if params.Limit < MinLimit {
		return nil, nil, controller.NewValidationError(
			fmt.Sprintf("limit must be >= %d", MinLimit),
			map[string]interface{}{"parameter": "limit"},
		)
	}
	if params.Limit > MaxLimit {
		return nil, nil, controller.NewValidationError(
			fmt.Sprintf("limit must be <= %d", MaxLimit),
			map[string]interface{}{"parameter": "limit"},
		)
	}
	if !slices.Contains(allowedSortFields, sortBy) {
		return nil, nil, controller.NewValidationError(
			fmt.Sprintf("sort_by must be one of: %s", strings.Join(allowedSortFields, ", ")),
			map[string]interface{}{"parameter": "sort_by"},
		)
	}
	if order != SortAsc && order != SortDesc {
		return nil, nil, controller.NewValidationError(
			"order must be 'asc' or 'desc'",
			map[string]interface{}{"parameter": "order"},
		)
	}

	filter := bson.M{}
	if params.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(params.Name), Options: "i"}
	}
	if params.AfterID != "" {
		afterID, err := primitive.ObjectIDFromHex(params.AfterID)
		if err != nil {
			return nil, nil, controller.NewValidationError(
				"after_id must be a valid identifier",
				map[string]interface{}{"parameter": "after_id"},
			)
		}
		filter["_id"] = bson.M{"$gt": afterID}
	}

	direction := 1
	if order == SortDesc {
		direction = -1
	}
	sort := bson.D{
		{Key: sortBy, Value: direction},
		{Key: "_id", Value: 1},
	}

	return filter, sort, nil
}

// ExecuteScroll runs one infinite-scroll batch: it validates and builds
// the query, fetches limit+1 candidates, and shapes the page result.
func ExecuteScroll(ctx context.Context, exec Executor, collection string, params ScrollParams, allowedSortFields []string) (*Page, error) {
	filter, sort, err := BuildScrollQuery(params, allowedSortFields)
	if err != nil {
		return nil, err
	}

	rows, err := exec.Find(ctx, collection, filter, sort, int64(params.Limit)+1)
	if err != nil {
		return nil, err
	}

	return shapePage(rows, params.Limit), nil
}

// shapePage detects the page boundary from a limit+1 fetch. When more
// than limit rows come back, the extra row is discarded and the cursor
// points at the identifier of the last returned row.
func shapePage(rows []bson.M, limit int) *Page {
	page := &Page{
		Items: []bson.M{},
		Limit: limit,
	}

	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		if cursor, ok := documentID(page.Items[limit-1]); ok {
			page.NextCursor = &cursor
		}
		return page
	}

	if len(rows) > 0 {
		page.Items = rows
	}
	return page
}

// documentID extracts the hex form of a document's _id.
func documentID(doc bson.M) (string, bool) {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex(), true
	case string:
		return id, true
	default:
		return "", false
	}
}
