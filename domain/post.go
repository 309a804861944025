package domain

import (
	"time"
)

// Creator is the denormalized author reference embedded in a Post.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageKey  string    `json:"-"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
