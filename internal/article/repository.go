package article

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	// UpsertByURL inserts the article if its URL is unseen; a duplicate URL
	// is an idempotent no-op. Returns true when a document was inserted.
	UpsertByURL(ctx context.Context, a *Article) (bool, error)
	// AppendLocations merges locations into an existing article without
	// duplicating entries already present.
	AppendLocations(ctx context.Context, url string, locs []LocationMention) error
	FindByCategory(ctx context.Context, category string, since time.Time) ([]Article, error)
	FindByCategoryAndRange(ctx context.Context, category string, from, to time.Time) ([]Article, error)
	FindByRange(ctx context.Context, from, to time.Time) ([]Article, error)
	FindBySource(ctx context.Context, source string) ([]Article, error)
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoArticleRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	col := db.Collection("articles")

	repo := &mongoRepository{
		col:    col,
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes makes the article URL the natural key so the same story can
// never be stored twice, and keeps time-range queries off a collection scan.
func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "publishedAt", Value: 1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)

	if err != nil && r.logger != nil {
		r.logger.Printf("failed to create indexes: %v", err)
	}
	return err
}

func (r *mongoRepository) UpsertByURL(ctx context.Context, a *Article) (bool, error) {
	now := time.Now()

	res := r.col.FindOne(ctx, bson.M{"url": a.URL})
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		if r.logger != nil {
			r.logger.Printf("inserting new article: %s", a.URL)
		}

		a.CreatedAt = now
		a.ModifiedAt = now
		if a.Locations == nil {
			a.Locations = []LocationMention{}
		}

		_, err := r.col.InsertOne(ctx, a)
		if err != nil {
			return false, err
		}

		return true, nil
	}

	if res.Err() != nil {
		return false, res.Err()
	}

	// Already stored; the URL is the natural key and article bodies are
	// immutable upstream, so a duplicate is a no-op.
	return false, nil
}

func (r *mongoRepository) AppendLocations(ctx context.Context, url string, locs []LocationMention) error {
	if len(locs) == 0 {
		return nil
	}

	each := make([]interface{}, 0, len(locs))
	for _, l := range locs {
		each = append(each, l)
	}

	_, err := r.col.UpdateOne(
		ctx,
		bson.M{"url": url},
		bson.M{
			"$addToSet": bson.M{"locations": bson.M{"$each": each}},
			"$set":      bson.M{"modifiedAt": time.Now()},
		},
	)
	return err
}

func (r *mongoRepository) FindByCategory(ctx context.Context, category string, since time.Time) ([]Article, error) {
	return r.find(ctx, bson.M{
		"category":    category,
		"publishedAt": bson.M{"$gte": since},
	})
}

func (r *mongoRepository) FindByCategoryAndRange(ctx context.Context, category string, from, to time.Time) ([]Article, error) {
	return r.find(ctx, bson.M{
		"category":    category,
		"publishedAt": bson.M{"$gte": from, "$lte": to},
	})
}

func (r *mongoRepository) FindByRange(ctx context.Context, from, to time.Time) ([]Article, error) {
	return r.find(ctx, bson.M{
		"publishedAt": bson.M{"$gte": from, "$lte": to},
	})
}

func (r *mongoRepository) FindBySource(ctx context.Context, source string) ([]Article, error) {
	return r.find(ctx, bson.M{"sourceId": source})
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M) ([]Article, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	articles := []Article{}
	if err := cur.All(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}
