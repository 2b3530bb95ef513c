package models

import "database/sql"

// Book is a catalog entry as stored. FileRef is only set for premium
// entries and never leaves the server.
type Book struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Author         string         `db:"author"`
	Genre          sql.NullString `db:"genre"`
	CoverImage     sql.NullString `db:"cover_image"`
	IsPremium      bool           `db:"is_premium"`
	PreviewContent string         `db:"preview_content"`
	FileRef        sql.NullString `db:"file_ref"`
}

// Downloadable reports whether the entry can be delivered as a file.
func (b *Book) Downloadable() bool {
	return b.IsPremium && b.FileRef.Valid && b.FileRef.String != ""
}

// Summary projects the book to its public fields.
func (b *Book) Summary() BookSummary {
	return BookSummary{
		ID:             b.ID,
		Title:          b.Title,
		Author:         b.Author,
		Genre:          b.Genre.String,
		CoverImage:     b.CoverImage.String,
		IsPremium:      b.IsPremium,
		PreviewContent: b.PreviewContent,
	}
}

// BookSummary is the public projection of a Book returned by the listing.
type BookSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Genre          string `json:"genre,omitempty"`
	CoverImage     string `json:"coverImage,omitempty"`
	IsPremium      bool   `json:"isPremium"`
	PreviewContent string `json:"previewContent"`
}
