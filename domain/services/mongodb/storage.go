// Package mongodb stores posts in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/domain/entities"
	"blogapi/domain/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

type document struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Author  entities.Author    `bson:"author"`
	Title   string             `bson:"title"`
	Content string             `bson:"content"`
	Created time.Time          `bson:"created"`
}

func (d document) toEntity() entities.Post {
	return entities.Post{
		Id:      d.ID.Hex(),
		Author:  d.Author,
		Title:   d.Title,
		Content: d.Content,
		Created: d.Created.UTC(),
	}
}

type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Options configures Connect.
type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Connect dials MongoDB, verifies the connection and ensures the collection indexes.
func Connect(ctx context.Context, opts Options) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Storage{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewStorage uses an existing collection. Close is a no-op on storages made this way.
func NewStorage(collection *mongo.Collection) *Storage {
	return &Storage{collection: collection}
}

// EnsureIndexes creates the index backing the listing order.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return wrapErr("create index", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.collection.Database().Client().Ping(ctx, nil); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

func (s *Storage) Insert(ctx context.Context, post *entities.Post) error {
	doc := document{
		ID:      primitive.NewObjectID(),
		Author:  post.Author,
		Title:   post.Title,
		Content: post.Content,
		Created: post.Created,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return wrapErr("insert post", err)
	}
	post.Id = doc.ID.Hex()
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id string) (*entities.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNonExistentData
	}

	var doc document
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNonExistentData
		}
		return nil, wrapErr("find post", err)
	}

	post := doc.toEntity()
	return &post, nil
}

func (s *Storage) FindAll(ctx context.Context) ([]entities.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("list posts", err)
	}
	defer cursor.Close(ctx)

	posts := []entities.Post{}
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		posts = append(posts, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("list posts", err)
	}
	return posts, nil
}

func (s *Storage) UpdateByID(ctx context.Context, id string, patch entities.PostPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return services.ErrNonExistentData
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}

	var res *mongo.UpdateResult
	if len(set) == 0 {
		// nothing to write, but the id must still exist
		n, err := s.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return wrapErr("update post", err)
		}
		res = &mongo.UpdateResult{MatchedCount: n}
	} else {
		res, err = s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
		if err != nil {
			return wrapErr("update post", err)
		}
	}

	if res.MatchedCount == 0 {
		return services.ErrNonExistentData
	}
	return nil
}

func (s *Storage) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return services.ErrNonExistentData
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapErr("delete post", err)
	}
	if res.DeletedCount == 0 {
		return services.ErrNonExistentData
	}
	return nil
}

func (s *Storage) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("count posts", err)
	}
	return n, nil
}

func wrapErr(op string, err error) error {
	if mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, topology.ErrServerSelectionTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, services.ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
