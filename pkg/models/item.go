package models

import "time"

// Item is a study item: a prompt with a single canonical answer.
type Item struct {
	ID        int64     `json:"id" db:"id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	Answer    string    `json:"answer" db:"answer"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
