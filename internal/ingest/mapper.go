package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/geonews/geonews/internal/article"
)

var errMissingURL = errors.New("article has no url")

// MapRawToArticle converts a raw upstream record into the domain model,
// tagging it with the category/country the fetch was issued for. The URL is
// the natural key and the publication time must parse; anything else is
// optional.
func MapRawToArticle(raw RawArticle, category, country string) (article.Article, error) {
	if raw.URL == "" {
		return article.Article{}, errMissingURL
	}

	publishedAt, err := parsePublishedAt(raw.PublishedAt)
	if err != nil {
		return article.Article{}, fmt.Errorf("parsing publishedAt for %s: %w", raw.URL, err)
	}

	return article.Article{
		SourceID:    raw.Source.ID,
		SourceName:  raw.Source.Name,
		Author:      raw.Author,
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.URL,
		ImageURL:    raw.URLToImage,
		PublishedAt: publishedAt,
		Content:     raw.Content,
		Category:    category,
		Country:     country,
	}, nil
}

// parsePublishedAt accepts RFC3339 timestamps, with or without the "Z"
// suffix the upstream API uses, and always yields a UTC instant.
func parsePublishedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty publishedAt")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
