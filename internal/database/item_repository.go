package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/pkg/models"
)

// ItemRepository handles database operations for study items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByID returns an item by ID, or models.ErrNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %v", err)
	}
	return &item, nil
}

// Create inserts a new item and sets its generated ID.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	id, err := insertID(ctx, r.db,
		"INSERT INTO items (prompt, answer, category) VALUES ($1, $2, $3)",
		item.Prompt, item.Answer, item.Category)
	if err != nil {
		return fmt.Errorf("failed to create item: %v", err)
	}
	item.ID = id
	return nil
}

// GetAll returns all items ordered by ID.
func (r *ItemRepository) GetAll(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.SelectContext(ctx, &items, "SELECT * FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %v", err)
	}
	return items, nil
}
