package configstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDumpUnsupported is returned by MongoStore.Dump/Restore: the external
// document store is already durable, so file-based snapshotting does not
// apply to it the way it does to MemoryStore.
var ErrDumpUnsupported = errors.New("configstore: dump/restore is only supported on the MEM backend")

// MongoStore is the config_store.backend=EXTERNAL backend: every collection
// maps 1:1 to a MongoDB collection in the configured database, so multiple
// gateway workers (server.workers > 1) can share state.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to the document store at url/database.
func NewMongoStore(ctx context.Context, url, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter map[string]interface{}) (map[string]interface{}, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M(filter)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}(doc), nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter map[string]interface{}, skip, limit int) (Cursor, error) {
	opts := options.Find()
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, err
	}
	return &mongoCursor{cur: cur}, nil
}

type mongoCursor struct {
	cur *mongo.Cursor
}

func (c *mongoCursor) ToList(ctx context.Context, limit int) ([]map[string]interface{}, error) {
	defer c.cur.Close(ctx)
	var raw []bson.M
	if err := c.cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, doc := range raw {
		out = append(out, map[string]interface{}(doc))
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc map[string]interface{}) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	return err
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter map[string]interface{}, update map[string]interface{}) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M(filter), bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter map[string]interface{}) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M(filter))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Dump(ctx context.Context) (map[string][]map[string]interface{}, error) {
	return nil, ErrDumpUnsupported
}

func (s *MongoStore) Restore(ctx context.Context, data map[string][]map[string]interface{}) error {
	return ErrDumpUnsupported
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
