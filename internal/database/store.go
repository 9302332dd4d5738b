package database

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Store is the hierarchical document store consumed by the core services.
// A slash path like
//
//	events/{eventId}/registered/{uid}/checkin_data
//
// addresses a subtree that can be fetched, overwritten, shallow-merged or
// removed. There are no transactions and no compare-and-swap; read-then-write
// sequences in the core are best-effort and documented as such. Collection
// scans fetch the whole collection and filter client-side.
type Store interface {
	// Get decodes the subtree at path into out. found is false when nothing
	// is stored there; out is left untouched in that case.
	Get(ctx context.Context, path string, out interface{}) (found bool, err error)
	// Set overwrites the subtree at path with value.
	Set(ctx context.Context, path string, value interface{}) error
	// Update shallow-merges fields into the document at path.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Remove deletes the subtree at path. Removing a missing path is not an
	// error.
	Remove(ctx context.Context, path string) error
}

// Join builds a store path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) ([]string, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil, fmt.Errorf("empty store path")
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("store path %q has an empty segment", path)
		}
	}
	return segments, nil
}

// decodeValue re-encodes an arbitrary stored value through bson into out, so
// both store implementations hand back identical types. Wrapping in a
// single-field document lets scalars round-trip as well.
func decodeValue(value, out interface{}) error {
	raw, err := bson.Marshal(bson.M{"v": value})
	if err != nil {
		return fmt.Errorf("encode stored value: %w", err)
	}
	var wrapper bson.Raw = raw
	rv := wrapper.Lookup("v")
	if err := rv.Unmarshal(out); err != nil {
		return fmt.Errorf("decode stored value: %w", err)
	}
	return nil
}
