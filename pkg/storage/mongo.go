package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/celltrack/pkg/errors"
)

const (
	mongoDatabase   = "celltrack"
	mongoCollection = "experiments"
	connectTimeout  = 10 * time.Second
)

type mongoDoc struct {
	Entry `bson:",inline"`
	Data  []byte `bson:"data"`
}

// MongoStore stores data files as documents in MongoDB.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the MongoDB server at uri and checks the
// connection. database may be empty for the default.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = mongoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStoreFromClient(client, database), nil
}

// NewMongoStoreFromClient uses an existing client.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}
}

// Put stores data under a new ID.
func (s *MongoStore) Put(ctx context.Context, name string, data []byte) (Entry, error) {
	entry, err := newEntry(name, data)
	if err != nil {
		return Entry{}, err
	}
	// Mongo keeps milliseconds only.
	entry.CreatedAt = entry.CreatedAt.Truncate(time.Millisecond)
	if _, err := s.coll.InsertOne(ctx, mongoDoc{Entry: entry, Data: data}); err != nil {
		return Entry{}, fmt.Errorf("put %s: %w", name, err)
	}
	return entry, nil
}

// Get returns a stored file.
func (s *MongoStore) Get(ctx context.Context, id string) (Entry, []byte, error) {
	if err := errors.ValidateID(id); err != nil {
		return Entry{}, nil, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, nil, notFound(id)
	}
	if err != nil {
		return Entry{}, nil, fmt.Errorf("get %s: %w", id, err)
	}
	return doc.Entry, doc.Data, nil
}

// List returns all entries, oldest first.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetProjection(bson.M{"data": 0}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return entries, nil
}

// Delete removes a stored file.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
