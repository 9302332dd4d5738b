package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rbreg/internal/config"
)

// MongoDB implements Store on MongoDB. The first path segment selects the
// collection, the second the document _id, and any remaining segments form a
// dotted field path inside the document. One-segment paths scan the whole
// collection and decode into a map keyed by _id.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) Get(ctx context.Context, path string, out interface{}) (bool, error) {
	segments, err := splitPath(path)
	if err != nil {
		return false, err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return false, err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(segments[0])

	if len(segments) == 1 {
		cursor, err := collection.Find(ctx, bson.D{})
		if err != nil {
			return false, fmt.Errorf("mongodb find: %w", err)
		}
		defer cursor.Close(ctx)
		docs := bson.M{}
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				return false, fmt.Errorf("mongodb decode: %w", err)
			}
			id, _ := doc["_id"].(string)
			if id == "" {
				continue
			}
			delete(doc, "_id")
			docs[id] = doc
		}
		if err := cursor.Err(); err != nil {
			return false, fmt.Errorf("mongodb cursor: %w", err)
		}
		if len(docs) == 0 {
			return false, nil
		}
		return true, decodeValue(docs, out)
	}

	var raw bson.Raw
	err = collection.FindOne(ctx, bson.D{{"_id", segments[1]}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongodb find: %w", err)
	}
	if len(segments) == 2 {
		if err := bson.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("mongodb decode: %w", err)
		}
		return true, nil
	}
	rv, err := raw.LookupErr(segments[2:]...)
	if err != nil {
		// Field absent inside an existing document.
		return false, nil
	}
	if err := rv.Unmarshal(out); err != nil {
		return false, fmt.Errorf("mongodb decode %q: %w", path, err)
	}
	return true, nil
}

func (m *MongoDB) Set(ctx context.Context, path string, value interface{}) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) < 2 {
		return fmt.Errorf("set needs a document path, got %q", path)
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(segments[0])
	opts := options.Update().SetUpsert(true)

	if len(segments) == 2 {
		// Full-document overwrite keeps the replace semantics of set().
		replaceOpts := options.Replace().SetUpsert(true)
		_, err = collection.ReplaceOne(ctx, bson.D{{"_id", segments[1]}}, value, replaceOpts)
		if err != nil {
			return fmt.Errorf("mongodb replace: %w", err)
		}
		return nil
	}
	field := strings.Join(segments[2:], ".")
	_, err = collection.UpdateOne(ctx, bson.D{{"_id", segments[1]}},
		bson.D{{"$set", bson.D{{field, value}}}}, opts)
	if err != nil {
		return fmt.Errorf("mongodb set %q: %w", path, err)
	}
	return nil
}

func (m *MongoDB) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) < 2 {
		return fmt.Errorf("update needs a document path, got %q", path)
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(segments[0])

	prefix := ""
	if len(segments) > 2 {
		prefix = strings.Join(segments[2:], ".") + "."
	}
	set := bson.D{}
	for k, v := range fields {
		set = append(set, bson.E{Key: prefix + k, Value: v})
	}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, bson.D{{"_id", segments[1]}}, bson.D{{"$set", set}}, opts)
	if err != nil {
		return fmt.Errorf("mongodb update %q: %w", path, err)
	}
	return nil
}

func (m *MongoDB) Remove(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) < 2 {
		return fmt.Errorf("remove needs a document path, got %q", path)
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(segments[0])

	if len(segments) == 2 {
		_, err = collection.DeleteOne(ctx, bson.D{{"_id", segments[1]}})
		if err != nil {
			return fmt.Errorf("mongodb delete: %w", err)
		}
		return nil
	}
	field := strings.Join(segments[2:], ".")
	_, err = collection.UpdateOne(ctx, bson.D{{"_id", segments[1]}},
		bson.D{{"$unset", bson.D{{field, ""}}}})
	if err != nil {
		return fmt.Errorf("mongodb unset %q: %w", path, err)
	}
	return nil
}
