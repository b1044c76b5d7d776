package model

import "time"

// Book is the stored record. Records are immutable values: updates produce
// a new record with a fresh UpdatedAt, never an in-place mutation.
type Book struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	ISBN          string    `json:"isbn" db:"isbn"`
	Price         float64   `json:"price" db:"price"`
	PublishedYear *int      `json:"publishedYear,omitempty" db:"published_year"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// BookInput carries the mutable fields for create and update requests.
// ISBN is a business key only, checksum correctness is not verified.
type BookInput struct {
	Title         string  `json:"title" validate:"required,max=255"`
	Author        string  `json:"author" validate:"required,max=255"`
	ISBN          string  `json:"isbn" validate:"required,min=10,max=20"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	PublishedYear *int    `json:"publishedYear" validate:"omitempty,gte=1450,lte=3000"`
}

// SearchFilter holds the optional query predicates. Empty/nil fields match
// all records. Title and Author are case-insensitive substring filters,
// price and year bounds are inclusive.
type SearchFilter struct {
	Title       string
	Author      string
	MinPrice    *float64
	MaxPrice    *float64
	Year        *int
	SortByPrice bool
}

type ListBooks struct {
	TotalElements int    `json:"totalElements"`
	Items         []Book `json:"items"`
}
