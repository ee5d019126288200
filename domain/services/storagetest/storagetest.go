// Package storagetest holds the behaviour every services.Storage has to show,
// plus helpers to seed a storage with posts.
package storagetest

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"blogapi/domain/entities"
	"blogapi/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	firstNames = []string{"Jane", "John", "Ada", "Grace", "Linus", "Ken", "Barbara", "Rob"}
	lastNames  = []string{"Doe", "Smith", "Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Pike"}
	words      = []string{"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit", "sed", "do"}
)

// GeneratePost returns a post with random author, title and content and no id.
func GeneratePost(rnd *rand.Rand) *entities.Post {
	sentence := func(n int) string {
		s := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				s += " "
			}
			s += words[rnd.Intn(len(words))]
		}
		return s
	}

	post := entities.NewPost(
		entities.Author{
			FirstName: firstNames[rnd.Intn(len(firstNames))],
			LastName:  lastNames[rnd.Intn(len(lastNames))],
		},
		sentence(4),
		sentence(30),
	)
	post.Created = time.Now().UTC().Truncate(time.Millisecond)
	return post
}

// SeedPosts inserts n generated posts and returns them with their ids.
func SeedPosts(t testing.TB, storage services.Storage, n int) []entities.Post {
	t.Helper()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]entities.Post, 0, n)
	for i := 0; i < n; i++ {
		post := GeneratePost(rnd)
		if err := storage.Insert(context.Background(), post); err != nil {
			t.Fatalf("unable to seed post %d, %v", i, err)
		}
		posts = append(posts, *post)
	}
	return posts
}

// Run checks storage behaviour against a fresh storage from newStorage for every case.
func Run(t *testing.T, newStorage func(t *testing.T) services.Storage) {
	ctx := context.Background()

	t.Run("insert assigns an id and find returns the same post", func(t *testing.T) {
		storage := newStorage(t)
		post := GeneratePost(rand.New(rand.NewSource(1)))

		require.NoError(t, storage.Insert(ctx, post))
		require.NotEmpty(t, post.Id)

		found, err := storage.FindByID(ctx, post.Id)
		require.NoError(t, err)
		assert.Equal(t, post.Id, found.Id)
		assert.Equal(t, post.Author, found.Author)
		assert.Equal(t, post.Title, found.Title)
		assert.Equal(t, post.Content, found.Content)
		assert.True(t, post.Created.Equal(found.Created), "created %v, want %v", found.Created, post.Created)
	})

	t.Run("ids are unique", func(t *testing.T) {
		storage := newStorage(t)
		posts := SeedPosts(t, storage, 10)

		seen := map[string]bool{}
		for _, p := range posts {
			assert.False(t, seen[p.Id], "duplicated id %s", p.Id)
			seen[p.Id] = true
		}
	})

	t.Run("find all lists every post and matches count", func(t *testing.T) {
		for _, n := range []int{0, 1, 10} {
			t.Run(fmt.Sprintf("%d posts", n), func(t *testing.T) {
				storage := newStorage(t)
				SeedPosts(t, storage, n)

				posts, err := storage.FindAll(ctx)
				require.NoError(t, err)
				count, err := storage.Count(ctx)
				require.NoError(t, err)

				assert.Len(t, posts, n)
				assert.EqualValues(t, n, count)
			})
		}
	})

	t.Run("find all orders by creation", func(t *testing.T) {
		storage := newStorage(t)
		base := time.Now().UTC().Truncate(time.Millisecond)
		rnd := rand.New(rand.NewSource(2))
		for _, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
			post := GeneratePost(rnd)
			post.Created = base.Add(offset)
			require.NoError(t, storage.Insert(ctx, post))
		}

		posts, err := storage.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].Created.Before(posts[i-1].Created), "posts out of order at %d", i)
		}
	})

	t.Run("update changes only patched fields", func(t *testing.T) {
		storage := newStorage(t)
		post := SeedPosts(t, storage, 1)[0]
		title := "Recipe"

		require.NoError(t, storage.UpdateByID(ctx, post.Id, entities.PostPatch{Title: &title}))

		found, err := storage.FindByID(ctx, post.Id)
		require.NoError(t, err)
		assert.Equal(t, title, found.Title)
		assert.Equal(t, post.Content, found.Content)
		assert.Equal(t, post.Author, found.Author)
		assert.True(t, post.Created.Equal(found.Created))
	})

	t.Run("empty update of existing post succeeds", func(t *testing.T) {
		storage := newStorage(t)
		post := SeedPosts(t, storage, 1)[0]

		assert.NoError(t, storage.UpdateByID(ctx, post.Id, entities.PostPatch{}))
	})

	t.Run("delete removes the post", func(t *testing.T) {
		storage := newStorage(t)
		post := SeedPosts(t, storage, 2)[0]

		require.NoError(t, storage.DeleteByID(ctx, post.Id))

		_, err := storage.FindByID(ctx, post.Id)
		assert.ErrorIs(t, err, services.ErrNonExistentData)
		count, err := storage.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("unknown ids are non-existent data", func(t *testing.T) {
		storage := newStorage(t)
		SeedPosts(t, storage, 1)
		title := "x"

		for _, id := range []string{"0", "not-an-id", "5f1d7f8e9b1e8a3c4d2b6a10"} {
			_, err := storage.FindByID(ctx, id)
			assert.ErrorIs(t, err, services.ErrNonExistentData, "find %q", id)
			assert.ErrorIs(t, storage.UpdateByID(ctx, id, entities.PostPatch{Title: &title}), services.ErrNonExistentData, "update %q", id)
			assert.ErrorIs(t, storage.UpdateByID(ctx, id, entities.PostPatch{}), services.ErrNonExistentData, "empty update %q", id)
			assert.ErrorIs(t, storage.DeleteByID(ctx, id), services.ErrNonExistentData, "delete %q", id)
		}
	})

	t.Run("second delete reports non-existent data", func(t *testing.T) {
		storage := newStorage(t)
		post := SeedPosts(t, storage, 1)[0]

		require.NoError(t, storage.DeleteByID(ctx, post.Id))
		assert.ErrorIs(t, storage.DeleteByID(ctx, post.Id), services.ErrNonExistentData)
	})
}
