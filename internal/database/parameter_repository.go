package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/pkg/models"
)

// algorithmConfigRow mirrors the algorithm_config table.
type algorithmConfigRow struct {
	UserID          int64     `db:"user_id"`
	Parameters      string    `db:"parameters"`
	TargetRetention float64   `db:"target_retention"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ParameterRepository is the parameter store: it loads the memory-model
// weight vector for a learner, falling back to the built-in defaults when
// nothing is configured. A stored but malformed vector is a configuration
// error and fails the load outright.
type ParameterRepository struct {
	db *sqlx.DB
}

// NewParameterRepository creates a new repository instance.
func NewParameterRepository(db *sqlx.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// ActiveParameters returns the validated parameters for a user.
func (r *ParameterRepository) ActiveParameters(ctx context.Context, userID int64) (models.MemoryParameters, error) {
	var row algorithmConfigRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM algorithm_config WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultParameters(), nil
	}
	if err != nil {
		return models.MemoryParameters{}, fmt.Errorf("failed to load algorithm config: %v", err)
	}

	var w []float64
	if err := json.Unmarshal([]byte(row.Parameters), &w); err != nil {
		return models.MemoryParameters{}, fmt.Errorf("%w: stored weights: %v", models.ErrConfiguration, err)
	}
	params := models.MemoryParameters{W: w, TargetRetention: row.TargetRetention}
	if err := params.Validate(); err != nil {
		return models.MemoryParameters{}, err
	}
	return params, nil
}

// Save stores a parameter set for a user, replacing any previous one.
func (r *ParameterRepository) Save(ctx context.Context, userID int64, params models.MemoryParameters) error {
	if err := params.Validate(); err != nil {
		return err
	}
	blob, err := json.Marshal(params.W)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %v", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE algorithm_config
		SET parameters = $1, target_retention = $2, updated_at = $3
		WHERE user_id = $4`,
		string(blob), params.TargetRetention, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update algorithm config: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO algorithm_config (user_id, parameters, target_retention, updated_at)
		VALUES ($1, $2, $3, $4)`,
		userID, string(blob), params.TargetRetention, now)
	if err != nil {
		return fmt.Errorf("failed to insert algorithm config: %v", err)
	}
	return nil
}
