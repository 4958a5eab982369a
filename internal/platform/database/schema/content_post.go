package schema

// ContentPostTable represents the 'content.post' table
type ContentPostTable struct {
	Table       string
	ID          string
	Title       string
	Slug        string
	Body        string
	Status      string
	AuthorID    string
	PublishedAt string
	CreatedAt   string
	UpdatedAt   string
}

// ContentPost is the schema definition for content.post
var ContentPost = ContentPostTable{
	Table:       "content.post",
	ID:          "id",
	Title:       "title",
	Slug:        "slug",
	Body:        "body",
	Status:      "status",
	AuthorID:    "authorid",
	PublishedAt: "publishedat",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t ContentPostTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Body, t.Status, t.AuthorID, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
