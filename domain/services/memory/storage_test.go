package memory_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"blogapi/domain/services"
	"blogapi/domain/services/memory"
	"blogapi/domain/services/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) services.Storage {
		return memory.NewStorage()
	})
}

func TestStorageConcurrentInserts(t *testing.T) {
	storage := memory.NewStorage()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for j := 0; j < 25; j++ {
				assert.NoError(t, storage.Insert(context.Background(), storagetest.GeneratePost(rnd)))
			}
		}(int64(i))
	}
	wg.Wait()

	count, err := storage.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 200, count)
}

func TestStorageFindReturnsCopy(t *testing.T) {
	storage := memory.NewStorage()
	post := storagetest.SeedPosts(t, storage, 1)[0]

	found, err := storage.FindByID(context.Background(), post.Id)
	require.NoError(t, err)
	found.Title = "changed"

	again, err := storage.FindByID(context.Background(), post.Id)
	require.NoError(t, err)
	assert.Equal(t, post.Title, again.Title)
}
