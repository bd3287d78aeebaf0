package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/initiative/internal/services/initiative/core/filter"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

const characterColumns = `id, name, level, speed_base, speed_bonus, speed_gain, created_at, updated_at`

// PutCharacter inserts or replaces a character, keeping its creation time.
func (s *Store) PutCharacter(ctx context.Context, character storage.Character) (storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Character{}, err
	}
	characterID := strings.TrimSpace(character.ID)
	name := strings.TrimSpace(character.Name)
	if characterID == "" {
		return storage.Character{}, fmt.Errorf("character id is required")
	}
	if name == "" {
		return storage.Character{}, fmt.Errorf("character name is required")
	}

	var base, bonus, gain sql.NullFloat64
	if character.Speed != nil {
		base = sql.NullFloat64{Float64: character.Speed.Base, Valid: true}
		bonus = sql.NullFloat64{Float64: character.Speed.Bonus, Valid: true}
		gain = sql.NullFloat64{Float64: character.Speed.Gain, Valid: true}
	}
	now := toMillis(s.timestamp())

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO characters (`+characterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   level = excluded.level,
		   speed_base = excluded.speed_base,
		   speed_bonus = excluded.speed_bonus,
		   speed_gain = excluded.speed_gain,
		   updated_at = excluded.updated_at`,
		characterID,
		name,
		character.Level,
		base,
		bonus,
		gain,
		now,
		now,
	)
	if err != nil {
		return storage.Character{}, fmt.Errorf("put character: %w", err)
	}
	return s.GetCharacter(ctx, characterID)
}

// GetCharacter returns one character by id.
func (s *Store) GetCharacter(ctx context.Context, characterID string) (storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Character{}, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.Character{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ?`, characterID)
	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Character{}, storage.ErrNotFound
		}
		return storage.Character{}, fmt.Errorf("get character: %w", err)
	}
	return character, nil
}

// GetCharacters returns the stored characters among ids keyed by id.
func (s *Store) GetCharacters(ctx context.Context, ids []string) (map[string]storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	found := make(map[string]storage.Character, len(ids))
	seen := make(map[string]struct{}, len(ids))
	params := make([]any, 0, len(ids))
	for _, value := range ids {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		params = append(params, value)
	}
	if len(params) == 0 {
		return found, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id IN (`+placeholders+`)`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("get characters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("get characters: %w", err)
		}
		found[character.ID] = character
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get characters: %w", err)
	}
	return found, nil
}

// ListCharacters returns one page of characters ordered by id.
func (s *Store) ListCharacters(ctx context.Context, opts storage.ListOptions) (storage.CharacterPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CharacterPage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.CharacterPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.ParseCharacterFilter(opts.Filter)
	if err != nil {
		return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
	}

	query, params := pageQuery(characterColumns, "characters", cond, opts)
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	page := storage.CharacterPage{Characters: make([]storage.Character, 0, opts.PageSize)}
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
		}
		page.Characters = append(page.Characters, character)
	}
	if err := rows.Err(); err != nil {
		return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
	}
	if len(page.Characters) > opts.PageSize {
		page.NextPageToken = page.Characters[opts.PageSize-1].ID
		page.Characters = page.Characters[:opts.PageSize]
	}
	return page, nil
}

func scanCharacter(row rowScanner) (storage.Character, error) {
	var (
		character          storage.Character
		base, bonus, gain  sql.NullFloat64
		createdAt, updated int64
	)
	if err := row.Scan(&character.ID, &character.Name, &character.Level, &base, &bonus, &gain, &createdAt, &updated); err != nil {
		return storage.Character{}, err
	}
	if base.Valid || bonus.Valid || gain.Valid {
		character.Speed = &roster.SpeedStat{Base: base.Float64, Bonus: bonus.Float64, Gain: gain.Float64}
	}
	character.CreatedAt = fromMillis(createdAt)
	character.UpdatedAt = fromMillis(updated)
	return character, nil
}
