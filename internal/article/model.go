package article

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article is one news item keyed by its URL. Locations stays empty until
// the enrichment pipeline resolves at least one place mention.
type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SourceID    string             `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
	SourceName  string             `bson:"sourceName,omitempty" json:"sourceName,omitempty"`
	Author      string             `bson:"author,omitempty" json:"author,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	URL         string             `bson:"url" json:"url"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	PublishedAt time.Time          `bson:"publishedAt" json:"publishedAt"`
	Content     string             `bson:"content,omitempty" json:"content,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`
	Locations   []LocationMention  `bson:"locations" json:"locations"`
	CreatedAt   time.Time          `bson:"createdAt" json:"-"`
	ModifiedAt  time.Time          `bson:"modifiedAt" json:"-"`
}

// LocationMention is a resolved place attached to an article. Created once
// at enrichment time, never mutated afterwards.
type LocationMention struct {
	Name string  `bson:"name" json:"location"`
	Lat  float64 `bson:"lat" json:"lat"`
	Lng  float64 `bson:"lng" json:"lng"`
}
