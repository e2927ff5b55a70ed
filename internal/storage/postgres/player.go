package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/player"
)

// PlayerRepository stores player records in the players table. Learned
// actions and key bindings are JSONB columns.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, username, species, level, health, experience, gold,
	spawn_x, spawn_y, learned_actions, key_actions, created_at, updated_at`

// Load retrieves the record for username.
//
// Postcondition: Returns a normalized record or player.ErrPlayerNotFound.
func (r *PlayerRepository) Load(ctx context.Context, username string) (*player.Record, error) {
	rec, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE username = $1`,
		username,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, player.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return rec, nil
}

// Create inserts rec and returns the stored copy with ID and timestamps set.
//
// Precondition: rec.Username must be non-empty.
// Postcondition: Returns player.ErrPlayerExists if the username is taken.
func (r *PlayerRepository) Create(ctx context.Context, rec *player.Record) (*player.Record, error) {
	learned, keys, err := encodeActions(rec)
	if err != nil {
		return nil, err
	}
	out, err := scanPlayer(r.db.QueryRow(ctx, `
		INSERT INTO players
			(username, species, level, health, experience, gold,
			 spawn_x, spawn_y, learned_actions, key_actions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+playerColumns,
		rec.Username, rec.Species, rec.Level, rec.Health, rec.Experience, rec.Gold,
		rec.SpawnX, rec.SpawnY, learned, keys,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, player.ErrPlayerExists
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return out, nil
}

// Save persists every mutable field of rec.
//
// Postcondition: Returns nil on success, player.ErrPlayerNotFound if no row updated.
func (r *PlayerRepository) Save(ctx context.Context, rec *player.Record) error {
	learned, keys, err := encodeActions(rec)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET
			species = $2, level = $3, health = $4, experience = $5, gold = $6,
			spawn_x = $7, spawn_y = $8, learned_actions = $9, key_actions = $10,
			updated_at = NOW()
		WHERE username = $1`,
		rec.Username, rec.Species, rec.Level, rec.Health, rec.Experience, rec.Gold,
		rec.SpawnX, rec.SpawnY, learned, keys,
	)
	if err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return player.ErrPlayerNotFound
	}
	return nil
}

func encodeActions(rec *player.Record) (learned, keys []byte, err error) {
	serials := rec.LearnedActions
	if serials == nil {
		serials = []int{}
	}
	if learned, err = json.Marshal(serials); err != nil {
		return nil, nil, fmt.Errorf("encoding learned actions: %w", err)
	}
	bindings := rec.KeyActions
	if bindings == nil {
		bindings = []*int{}
	}
	if keys, err = json.Marshal(bindings); err != nil {
		return nil, nil, fmt.Errorf("encoding key actions: %w", err)
	}
	return learned, keys, nil
}

func scanPlayer(row pgx.Row) (*player.Record, error) {
	var (
		rec           player.Record
		learned, keys []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Username, &rec.Species, &rec.Level, &rec.Health, &rec.Experience, &rec.Gold,
		&rec.SpawnX, &rec.SpawnY, &learned, &keys, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(learned, &rec.LearnedActions); err != nil {
		return nil, fmt.Errorf("decoding learned actions: %w", err)
	}
	if err := json.Unmarshal(keys, &rec.KeyActions); err != nil {
		return nil, fmt.Errorf("decoding key actions: %w", err)
	}
	rec.Normalize()
	return &rec, nil
}
