package entities

import "time"

type Author struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// Name renders the author the way responses show it, "First Last".
func (a Author) Name() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

type Post struct {
	Id      string    `json:"id"`
	Author  Author    `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

func NewPost(author Author, title, content string) *Post {
	return &Post{
		Author:  author,
		Title:   title,
		Content: content,
	}
}

// PostPatch holds the mutable fields of a post. Nil fields are left as they are.
type PostPatch struct {
	Title   *string
	Content *string
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// Apply writes the patch onto post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
}
