package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/agile-crafts-people/impact-profile-api/pkg/repository/document/doctest"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testSortFields = []string{"name", "description", "status", "created.at_time", "saved.at_time"}

func validParams() ScrollParams {
	return ScrollParams{Limit: DefaultLimit}
}

func TestBuildScrollQuery_Validation(t *testing.T) {
	tests := []struct {
		name      string
		params    ScrollParams
		wantError string
		parameter string
	}{
		{
			name:      "limit below minimum",
			params:    ScrollParams{Limit: 0},
			wantError: "limit must be >= 1",
			parameter: "limit",
		},
		{
			name:      "negative limit",
			params:    ScrollParams{Limit: -5},
			wantError: "limit must be >= 1",
			parameter: "limit",
		},
		{
			name:      "limit above maximum",
			params:    ScrollParams{Limit: 101},
			wantError: "limit must be <= 100",
			parameter: "limit",
		},
		{
			name:      "unknown sort field",
			params:    ScrollParams{Limit: 10, SortBy: "secret_field"},
			wantError: "sort_by must be one of",
			parameter: "sort_by",
		},
		{
			name:      "bad order",
			params:    ScrollParams{Limit: 10, Order: "sideways"},
			wantError: "order must be 'asc' or 'desc'",
			parameter: "order",
		},
		{
			name:      "bad cursor",
			params:    ScrollParams{Limit: 10, AfterID: "not-an-object-id"},
			wantError: "after_id must be a valid identifier",
			parameter: "after_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildScrollQuery(tt.params, testSortFields)
			if err == nil {
				t.Fatalf("expected validation error, got nil")
			}

			var appErr *controller.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.HTTPStatus != 400 {
				t.Errorf("expected status 400, got %d", appErr.HTTPStatus)
			}
			if !strings.Contains(appErr.Message, tt.wantError) {
				t.Errorf("expected message containing %q, got %q", tt.wantError, appErr.Message)
			}
			if got := appErr.Details["parameter"]; got != tt.parameter {
				t.Errorf("expected parameter detail %q, got %v", tt.parameter, got)
			}
		})
	}
}

func TestBuildScrollQuery_Defaults(t *testing.T) {
	_, sort, err := BuildScrollQuery(validParams(), testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sort[0].Key != "name" || sort[0].Value != 1 {
		t.Errorf("expected default sort on name asc, got %v", sort[0])
	}
	if sort[1].Key != "_id" || sort[1].Value != 1 {
		t.Errorf("expected _id tie-break, got %v", sort[1])
	}
}

func TestBuildScrollQuery_SortDirectionAndTieBreak(t *testing.T) {
	params := validParams()
	params.SortBy = "status"
	params.Order = SortDesc

	_, sort, err := BuildScrollQuery(params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sort[0].Key != "status" || sort[0].Value != -1 {
		t.Errorf("expected status desc, got %v", sort[0])
	}
	// The tie-break is always _id ascending regardless of requested order.
	if sort[1].Key != "_id" || sort[1].Value != 1 {
		t.Errorf("expected _id asc tie-break, got %v", sort[1])
	}
}

func TestBuildScrollQuery_CursorPredicate(t *testing.T) {
	after := primitive.NewObjectID()
	params := validParams()
	params.AfterID = after.Hex()

	filter, _, err := BuildScrollQuery(params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond, ok := filter["_id"].(bson.M)
	if !ok {
		t.Fatalf("expected _id condition, got %v", filter["_id"])
	}
	if cond["$gt"] != after {
		t.Errorf("expected $gt %v, got %v", after, cond["$gt"])
	}
}

func TestBuildScrollQuery_NameFilterIsQuotedRegex(t *testing.T) {
	params := validParams()
	params.Name = "a.b"

	filter, _, err := BuildScrollQuery(params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rgx, ok := filter["name"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected regex name filter, got %T", filter["name"])
	}
	if rgx.Pattern != `a\.b` {
		t.Errorf("expected quoted pattern, got %q", rgx.Pattern)
	}
	if rgx.Options != "i" {
		t.Errorf("expected case-insensitive option, got %q", rgx.Options)
	}
}

func TestExecuteScroll_EmptyCollection(t *testing.T) {
	exec := doctest.NewMemoryExecutor()

	page, err := ExecuteScroll(context.Background(), exec, "platform", validParams(), testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 0 {
		t.Errorf("expected no items, got %d", len(page.Items))
	}
	if page.Items == nil {
		t.Error("expected items to be an empty slice, not nil")
	}
	if page.HasMore {
		t.Error("expected has_more false")
	}
	if page.NextCursor != nil {
		t.Errorf("expected nil next_cursor, got %v", *page.NextCursor)
	}
}

func TestExecuteScroll_ValidationFailsBeforeStoreAccess(t *testing.T) {
	exec := doctest.NewMemoryExecutor()

	params := validParams()
	params.Limit = 500
	if _, err := ExecuteScroll(context.Background(), exec, "platform", params, testSortFields); err == nil {
		t.Fatal("expected validation error")
	}
	if exec.FindCalls() != 0 {
		t.Errorf("expected no store access on validation failure, got %d queries", exec.FindCalls())
	}
}

func TestExecuteScroll_TwoBatchScenario(t *testing.T) {
	exec := doctest.NewMemoryExecutor()
	ctx := context.Background()

	ids := make([]primitive.ObjectID, 0, 15)
	for i := 0; i < 15; i++ {
		id, err := exec.InsertOne(ctx, "platform", bson.M{"name": fmt.Sprintf("platform-%02d", i)})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		ids = append(ids, id)
	}

	first, err := ExecuteScroll(ctx, exec, "platform", validParams(), testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(first.Items))
	}
	if !first.HasMore {
		t.Fatal("expected has_more true")
	}
	if first.NextCursor == nil {
		t.Fatal("expected next_cursor")
	}
	// Names are inserted in sort order, so the 10th item by name is ids[9].
	if *first.NextCursor != ids[9].Hex() {
		t.Errorf("expected cursor %s, got %s", ids[9].Hex(), *first.NextCursor)
	}

	params := validParams()
	params.AfterID = *first.NextCursor
	second, err := ExecuteScroll(ctx, exec, "platform", params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(second.Items))
	}
	if second.HasMore {
		t.Error("expected has_more false")
	}
	if second.NextCursor != nil {
		t.Errorf("expected nil next_cursor, got %v", *second.NextCursor)
	}
}

func TestExecuteScroll_CursorPastLastItem(t *testing.T) {
	exec := doctest.NewMemoryExecutor()
	ctx := context.Background()

	var lastID primitive.ObjectID
	for i := 0; i < 3; i++ {
		id, err := exec.InsertOne(ctx, "platform", bson.M{"name": fmt.Sprintf("p%d", i)})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		lastID = id
	}

	params := validParams()
	params.AfterID = lastID.Hex()
	page, err := ExecuteScroll(ctx, exec, "platform", params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("expected empty page, got %d items", len(page.Items))
	}
	if page.HasMore {
		t.Error("expected has_more false")
	}
}

func TestExecuteScroll_NameFilter(t *testing.T) {
	exec := doctest.NewMemoryExecutor()
	ctx := context.Background()

	for _, name := range []string{"Alpha One", "alpha two", "beta"} {
		if _, err := exec.InsertOne(ctx, "platform", bson.M{"name": name}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	params := validParams()
	params.Name = "alpha"
	page, err := ExecuteScroll(ctx, exec, "platform", params, testSortFields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(page.Items))
	}
	for _, item := range page.Items {
		name := item["name"].(string)
		if !strings.Contains(strings.ToLower(name), "alpha") {
			t.Errorf("unexpected item %q", name)
		}
	}
}

func TestExecuteScroll_StoreErrorPropagates(t *testing.T) {
	exec := doctest.NewMemoryExecutor()
	boom := errors.New("connection reset")
	exec.FailNext(boom)

	_, err := ExecuteScroll(context.Background(), exec, "platform", validParams(), testSortFields)
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}
