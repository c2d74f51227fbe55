// Package doctest provides an in-memory document.Executor for tests.
// It interprets the filter and sort shapes the scroll engine and the
// resource services emit: field equality, case-insensitive regex on
// strings, $gt on _id, $set updates, and single-field sort with _id
// tie-break.
package doctest

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemoryExecutor is an in-memory document.Executor. Documents round-trip
// through bson marshalling on the way in and out, so stored values carry
// the same types a real driver decode would produce (primitive.DateTime,
// int32/int64, nested bson.M).
type MemoryExecutor struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	findCalls   int
	failNext    error
}

// NewMemoryExecutor creates an empty in-memory executor.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{
		collections: make(map[string][]bson.M),
	}
}

// FindCalls reports how many Find queries have been executed. Tests use
// it to assert that validation failures never reach the store.
func (m *MemoryExecutor) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

// FailNext makes the next executor call return err instead of executing.
func (m *MemoryExecutor) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Count returns the number of documents stored in the collection.
func (m *MemoryExecutor) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

func (m *MemoryExecutor) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// InsertOne stores a copy of the document, assigning a fresh ObjectID
// when the caller did not supply one.
func (m *MemoryExecutor) InsertOne(ctx context.Context, collection string, doc bson.M) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return primitive.NilObjectID, err
	}

	stored, err := copyDoc(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := stored["_id"].(primitive.ObjectID)
	if !ok {
		id = primitive.NewObjectID()
		stored["_id"] = id
	}

	m.collections[collection] = append(m.collections[collection], stored)
	return id, nil
}

// FindOne returns a copy of the first document matching the filter, or
// mongo.ErrNoDocuments.
func (m *MemoryExecutor) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	for _, doc := range m.collections[collection] {
		if matchesFilter(doc, filter) {
			return copyDoc(doc)
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindOneAndUpdate applies a $set update to the first document matching
// the filter and returns a copy of the post-update document, or
// mongo.ErrNoDocuments.
func (m *MemoryExecutor) FindOneAndUpdate(ctx context.Context, collection string, filter bson.M, update bson.M) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	for _, doc := range m.collections[collection] {
		if !matchesFilter(doc, filter) {
			continue
		}
		if set, ok := update["$set"].(bson.M); ok {
			normalized, err := copyDoc(set)
			if err != nil {
				return nil, err
			}
			for k, v := range normalized {
				doc[k] = v
			}
		}
		return copyDoc(doc)
	}
	return nil, mongo.ErrNoDocuments
}

// Find returns copies of up to limit documents matching the filter, in
// the given sort order.
func (m *MemoryExecutor) Find(ctx context.Context, collection string, filter bson.M, sortSpec bson.D, limit int64) ([]bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	matched := []bson.M{}
	for _, doc := range m.collections[collection] {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}

	sortDocs(matched, sortSpec)

	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	out := make([]bson.M, 0, len(matched))
	for _, doc := range matched {
		clone, err := copyDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

func copyDoc(doc bson.M) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchesFilter(doc bson.M, filter bson.M) bool {
	for field, expected := range filter {
		actual := lookupPath(doc, field)
		switch cond := expected.(type) {
		case bson.M:
			for op, operand := range cond {
				switch op {
				case "$gt":
					if compareValues(actual, operand) <= 0 {
						return false
					}
				case "$regex":
					if !matchesRegex(actual, operand) {
						return false
					}
				default:
					return false
				}
			}
		case primitive.Regex:
			if !matchesRegex(actual, cond) {
				return false
			}
		default:
			if compareValues(actual, cond) != 0 {
				return false
			}
		}
	}
	return true
}

func matchesRegex(value, pattern interface{}) bool {
	rgx, ok := pattern.(primitive.Regex)
	if !ok {
		return false
	}
	str, ok := value.(string)
	if !ok {
		return false
	}
	expr := rgx.Pattern
	if strings.Contains(rgx.Options, "i") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(str)
}

func lookupPath(doc bson.M, path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = doc
	for _, part := range parts {
		asMap, ok := current.(bson.M)
		if !ok {
			return nil
		}
		current = asMap[part]
	}
	return current
}

func sortDocs(docs []bson.M, sortSpec bson.D) {
	if len(sortSpec) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, entry := range sortSpec {
			direction := 1
			if d, ok := entry.Value.(int); ok {
				direction = d
			}
			cmp := compareValues(lookupPath(docs[i], entry.Key), lookupPath(docs[j], entry.Key))
			if cmp == 0 {
				continue
			}
			if direction < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues orders values the way the fake needs for sorting and
// cursor predicates: nil first, then by native type order.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if aID, ok := a.(primitive.ObjectID); ok {
		if bID, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(aID[:], bID[:])
		}
	}

	if aStr, ok := a.(string); ok {
		if bStr, ok := b.(string); ok {
			return strings.Compare(aStr, bStr)
		}
	}

	if aT, aok := asMillis(a); aok {
		if bT, bok := asMillis(b); bok {
			switch {
			case aT < bT:
				return -1
			case aT > bT:
				return 1
			default:
				return 0
			}
		}
	}

	if aF, aok := asFloat(a); aok {
		if bF, bok := asFloat(b); bok {
			switch {
			case aF < bF:
				return -1
			case aF > bF:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asMillis(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return int64(t), true
	case time.Time:
		return t.UnixMilli(), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
