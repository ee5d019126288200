package mongodb_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"blogapi/domain/entities"
	"blogapi/domain/services"
	"blogapi/domain/services/mongodb"
	"blogapi/domain/services/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoURI is set by TestMain when a container is running.
var mongoURI string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, uri, err := startMongo(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping MongoDB tests: %v\n", err)
		os.Exit(m.Run())
	}
	mongoURI = uri

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startMongo(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start MongoDB container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		container.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get mapped port: %w", err)
	}

	return container, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

// newTestStorage connects a storage to a database of its own, dropped when the test ends.
func newTestStorage(t *testing.T) (*mongodb.Storage, *mongo.Collection) {
	t.Helper()

	if mongoURI == "" {
		t.Skip("MongoDB is not available")
	}

	database := "blog_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	storage, err := mongodb.Connect(context.Background(), mongodb.Options{
		URI:            mongoURI,
		Database:       database,
		Collection:     "posts",
		ConnectTimeout: 10 * time.Second,
	})
	require.NoError(t, err)

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	collection := client.Database(database).Collection("posts")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Database(database).Drop(ctx); err != nil {
			t.Logf("unable to drop %s, %v", database, err)
		}
		_ = client.Disconnect(ctx)
		_ = storage.Close(ctx)
	})

	return storage, collection
}

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) services.Storage {
		storage, _ := newTestStorage(t)
		return storage
	})
}

func TestStorageKeepsCompositeAuthor(t *testing.T) {
	storage, collection := newTestStorage(t)
	post := entities.NewPost(entities.Author{FirstName: "Jane", LastName: "Doe"}, "Hello", "World")
	post.Created = time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, storage.Insert(context.Background(), post))

	var raw bson.M
	require.NoError(t, collection.FindOne(context.Background(), bson.M{}).Decode(&raw))

	author, ok := raw["author"].(bson.M)
	require.True(t, ok, "author stored as %T", raw["author"])
	assert.Equal(t, "Jane", author["firstName"])
	assert.Equal(t, "Doe", author["lastName"])
	assert.Equal(t, "Hello", raw["title"])
}

func TestStorageUnavailable(t *testing.T) {
	client, err := mongo.Connect(context.Background(),
		options.Client().
			ApplyURI("mongodb://127.0.0.1:1").
			SetServerSelectionTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	storage := mongodb.NewStorage(client.Database("blog").Collection("posts"))

	_, err = storage.Count(context.Background())
	assert.ErrorIs(t, err, services.ErrUnavailable)
}
