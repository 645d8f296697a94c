package domain

import "time"

// Category groups products for browsing.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"category_name"`
	Image       string    `json:"category_image"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
