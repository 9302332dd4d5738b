package database

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process Store used by tests and the local environment. It
// keeps the same bson encode/decode round-trip as the MongoDB implementation
// so values come back with identical types either way.
type Memory struct {
	mu   sync.RWMutex
	tree map[string]interface{}
}

func NewMemory() *Memory {
	return &Memory{tree: make(map[string]interface{})}
}

// normalize passes a value through bson so the stored tree only contains
// plain documents, not caller structs.
func normalize(value interface{}) (interface{}, error) {
	raw, err := bson.Marshal(bson.M{"v": value})
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return doc["v"], nil
}

func (m *Memory) Get(_ context.Context, path string, out interface{}) (bool, error) {
	segments, err := splitPath(path)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var node interface{} = m.tree
	for _, s := range segments {
		branch, ok := asBranch(node)
		if !ok {
			return false, nil
		}
		node, ok = branch[s]
		if !ok {
			return false, nil
		}
	}
	return true, decodeValue(node, out)
}

func (m *Memory) Set(_ context.Context, path string, value interface{}) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	plain, err := normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	branch := m.descend(segments[:len(segments)-1])
	branch[segments[len(segments)-1]] = plain
	return nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]interface{}) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	branch := m.descend(segments)
	for k, v := range fields {
		plain, err := normalize(v)
		if err != nil {
			return err
		}
		branch[k] = plain
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var node interface{} = m.tree
	for _, s := range segments[:len(segments)-1] {
		branch, ok := asBranch(node)
		if !ok {
			return nil
		}
		node, ok = branch[s]
		if !ok {
			return nil
		}
	}
	if branch, ok := asBranch(node); ok {
		delete(branch, segments[len(segments)-1])
	}
	return nil
}

// descend walks to the branch at segments, materializing intermediate maps.
// Callers hold the write lock.
func (m *Memory) descend(segments []string) map[string]interface{} {
	branch := m.tree
	for _, s := range segments {
		child, ok := asBranch(branch[s])
		if !ok {
			child = make(map[string]interface{})
			branch[s] = child
		}
		branch = child
	}
	return branch
}

func asBranch(node interface{}) (map[string]interface{}, bool) {
	switch b := node.(type) {
	case map[string]interface{}:
		return b, true
	case bson.M:
		return b, true
	default:
		return nil, false
	}
}
