package ingest

// Wire types for the upstream news API. Every field except url may be
// missing and the mapper tolerates that.

type RawSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RawArticle struct {
	Source      RawSource `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
}

type NewsResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []RawArticle `json:"articles"`
	// Populated when Status != "ok".
	Code    string `json:"code"`
	Message string `json:"message"`
}
