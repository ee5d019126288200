package specifications

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"testing"
	"time"

	"blogapi/adapters/httpserver"
)

// PostsDriver performs post operations against some running system.
type PostsDriver interface {
	CreateAPost(args ...string) (httpserver.Response, error)
	GetPosts() (httpserver.Response, error)
	GetAPost(id string) (httpserver.Response, error)
	EditAPost(id string, args ...string) (httpserver.Response, error)
	DeleteAPost(id string) (httpserver.Response, error)
	Health() (httpserver.Response, error)
	Send(method, path, body string) (httpserver.Response, error)
}

var postFields = []string{"author", "content", "created", "id", "title"}

func CreatingAPostSpecification(t testing.TB, driver PostsDriver) {
	got, err := driver.CreateAPost("author.firstName: Jane", "author.lastName: Doe", "title: Hello", "content: World")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusCreated)

	want := map[string]any{
		"author":  "Jane Doe",
		"title":   "Hello",
		"content": "World",
	}
	post := decodeObject(t, got)
	assertPostFields(t, post)
	assertPostsCanBeTheSame(t, post, want)
	if id, _ := post["id"].(string); id == "" {
		t.Fatalf("expected post id to be assigned, got %v", post["id"])
	}
	assertCreated(t, post)

	found, err := driver.GetAPost(post["id"].(string))
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, found, http.StatusOK)
	assertPostsCanBeTheSame(t, decodeObject(t, found), post)
}

func CreatingAPostWithMissingFieldsSpecification(t testing.TB, driver PostsDriver) {
	before := countPosts(t, driver)

	cases := [][]string{
		{"author.firstName: Jane", "author.lastName: Doe", "content: World"},
		{"author.firstName: Jane", "author.lastName: Doe", "title: Hello"},
		{"author.firstName: Jane", "title: Hello", "content: World"},
		{"title: Hello", "content: World"},
		{"author.firstName: Jane", "author.lastName: Doe", "title: ", "content: World"},
	}
	for _, args := range cases {
		got, err := driver.CreateAPost(args...)
		if err != nil {
			t.Fatalf("failed specification test, %v", err)
		}
		assertStatus(t, got, http.StatusBadRequest)
		assertHasError(t, got)
	}

	if after := countPosts(t, driver); after != before {
		t.Fatalf("invalid posts were stored, count went from %d to %d", before, after)
	}
}

func ListingPostsSpecification(t testing.TB, driver PostsDriver) {
	for i := 0; i < 3; i++ {
		got, err := driver.CreateAPost("author.firstName: Ada", "author.lastName: Lovelace", "title: Notes", "content: On the engine")
		if err != nil {
			t.Fatalf("failed specification test, %v", err)
		}
		assertStatus(t, got, http.StatusCreated)
	}

	got, err := driver.GetPosts()
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusOK)

	var posts []map[string]any
	if err := json.Unmarshal(got.Body, &posts); err != nil {
		t.Fatalf("unable to decode response payload %q, %v", got.Body, err)
	}
	if len(posts) < 3 {
		t.Fatalf("expected at least 3 posts, got %d", len(posts))
	}
	for _, p := range posts {
		assertPostFields(t, p)
	}

	if count := countPosts(t, driver); int64(len(posts)) != count {
		t.Fatalf("listed %d posts but the store holds %d", len(posts), count)
	}
}

func UpdatingAPostSpecification(t testing.TB, driver PostsDriver) {
	post := createPost(t, driver)
	id := post["id"].(string)

	content := "Lorem Ipsum is simply dummy text of the printing and typesetting industry."
	got, err := driver.EditAPost(id, "id: "+id, "title: Recipe", "content: "+content)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNoContent)
	if len(got.Body) != 0 {
		t.Errorf("expected empty body, got %q", got.Body)
	}

	found, err := driver.GetAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, found, http.StatusOK)
	updated := decodeObject(t, found)
	assertPostsCanBeTheSame(t, updated, map[string]any{
		"id":      id,
		"title":   "Recipe",
		"content": content,
		"author":  post["author"],
		"created": post["created"],
	})

	got, err = driver.EditAPost(id, "title: Only the title")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNoContent)
	found, _ = driver.GetAPost(id)
	assertPostsCanBeTheSame(t, decodeObject(t, found), map[string]any{"title": "Only the title", "content": content})
}

func UpdatingAPostWithBadRequestsSpecification(t testing.TB, driver PostsDriver) {
	post := createPost(t, driver)
	id := post["id"].(string)

	got, err := driver.EditAPost(id, "id: not-"+id, "title: Recipe")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusBadRequest)
	assertHasError(t, got)

	got, err = driver.EditAPost(id, "title: ")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusBadRequest)

	got, err = driver.Send(http.MethodPut, "/posts/"+id, `{"title": `)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusBadRequest)

	found, _ := driver.GetAPost(id)
	assertPostsCanBeTheSame(t, decodeObject(t, found), post)
}

func DeletingAPostSpecification(t testing.TB, driver PostsDriver) {
	post := createPost(t, driver)
	id := post["id"].(string)
	before := countPosts(t, driver)

	got, err := driver.DeleteAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNoContent)

	found, err := driver.GetAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, found, http.StatusNotFound)

	if after := countPosts(t, driver); after != before-1 {
		t.Fatalf("expected %d posts after delete, got %d", before-1, after)
	}

	again, err := driver.DeleteAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, again, http.StatusNotFound)
}

func MissingPostsSpecification(t testing.TB, driver PostsDriver) {
	const id = "5f1d7f8e9b1e8a3c4d2b6a10"

	got, err := driver.GetAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNotFound)
	assertHasError(t, got)

	got, err = driver.EditAPost(id, "title: Recipe")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNotFound)

	got, err = driver.DeleteAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusNotFound)
}

func MalformedPostSpecification(t testing.TB, driver PostsDriver) {
	validPost := `{"author":{"firstName":"Jane","lastName":"Doe"},"title":"Hello","content":"World"}`
	bodies := []string{
		"",
		"{",
		"[]",
		`{"title": 12}`,
		`{"title":"a"} x`,
		validPost + " not json at all",
		validPost + `{"x":`,
		validPost + validPost,
	}

	before := countPosts(t, driver)
	for _, body := range bodies {
		got, err := driver.Send(http.MethodPost, "/posts", body)
		if err != nil {
			t.Fatalf("failed specification test, %v", err)
		}
		assertStatus(t, got, http.StatusBadRequest)
	}
	if after := countPosts(t, driver); after != before {
		t.Errorf("malformed bodies stored posts, count went from %d to %d", before, after)
	}

	post := createPost(t, driver)
	id, _ := post["id"].(string)
	for _, body := range []string{`{"title":"Changed"} x`, `{"title":"Changed"}{"content":"Too"}`} {
		got, err := driver.Send(http.MethodPut, "/posts/"+id, body)
		if err != nil {
			t.Fatalf("failed specification test, %v", err)
		}
		assertStatus(t, got, http.StatusBadRequest)
	}

	got, err := driver.GetAPost(id)
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusOK)
	if title := decodeObject(t, got)["title"]; title != post["title"] {
		t.Errorf("got title %v after malformed update, want %v", title, post["title"])
	}
}

func createPost(t testing.TB, driver PostsDriver) map[string]any {
	t.Helper()

	got, err := driver.CreateAPost("author.firstName: Grace", "author.lastName: Hopper", "title: Bugs", "content: Found a moth")
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusCreated)
	return decodeObject(t, got)
}

func countPosts(t testing.TB, driver PostsDriver) int64 {
	t.Helper()

	got, err := driver.Health()
	if err != nil {
		t.Fatalf("failed specification test, %v", err)
	}
	assertStatus(t, got, http.StatusOK)

	var health httpserver.HealthModel
	if err := json.Unmarshal(got.Body, &health); err != nil {
		t.Fatalf("unable to decode health payload %q, %v", got.Body, err)
	}
	return health.Posts
}

func decodeObject(t testing.TB, got httpserver.Response) map[string]any {
	t.Helper()

	var v map[string]any
	if err := json.Unmarshal(got.Body, &v); err != nil {
		t.Fatalf("unable to decode response payload %q, %v", got.Body, err)
	}
	return v
}

func assertStatus(t testing.TB, got httpserver.Response, want int) {
	t.Helper()

	if got.Status != want {
		t.Fatalf("did not get correct status, got %d but want %d (%s)", got.Status, want, got.Body)
	}
}

func assertHasError(t testing.TB, got httpserver.Response) {
	t.Helper()

	body := decodeObject(t, got)
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error detail, got %s", got.Body)
	}
}

func assertPostFields(t testing.TB, post map[string]any) {
	t.Helper()

	keys := make([]string, 0, len(post))
	for k := range post {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, postFields) {
		t.Fatalf("got post fields %v, want %v", keys, postFields)
	}
}

func assertCreated(t testing.TB, post map[string]any) {
	t.Helper()

	s, _ := post["created"].(string)
	created, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("post created %q is not a timestamp, %v", post["created"], err)
	}
	if created.IsZero() || time.Since(created) > time.Minute {
		t.Fatalf("post created %v is not the time of insertion", created)
	}
}

// assertPostsCanBeTheSame checks every field of want is equal in got.
func assertPostsCanBeTheSame(t testing.TB, got, want map[string]any) {
	t.Helper()

	for k, wv := range want {
		if gv := got[k]; !reflect.DeepEqual(gv, wv) {
			t.Fatalf("got post %s=%v, but want %v", k, gv, wv)
		}
	}
}
