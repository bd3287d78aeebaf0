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

const encounterColumns = `id, name, locked_prefix_length, revision, updated_by, created_at, updated_at`

// CreateEncounter inserts an encounter with its initial roster at revision 1.
func (s *Store) CreateEncounter(ctx context.Context, encounter storage.Encounter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	encounterID := strings.TrimSpace(encounter.ID)
	name := strings.TrimSpace(encounter.Name)
	if encounterID == "" {
		return fmt.Errorf("encounter id is required")
	}
	if name == "" {
		return fmt.Errorf("encounter name is required")
	}
	createdAt := encounter.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.timestamp()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create encounter: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO encounters (`+encounterColumns+`) VALUES (?, ?, ?, 1, ?, ?, ?)`,
		encounterID,
		name,
		lockedPrefixValue(encounter.Roster.LockedPrefixLength),
		strings.TrimSpace(encounter.UpdatedBy),
		toMillis(createdAt),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create encounter: %w", err)
	}
	if err := insertCombatants(ctx, tx, encounterID, encounter.Roster.Combatants); err != nil {
		return fmt.Errorf("create encounter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create encounter: %w", err)
	}
	return nil
}

// GetEncounter returns one encounter with its roster.
func (s *Store) GetEncounter(ctx context.Context, encounterID string) (storage.Encounter, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Encounter{}, err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return storage.Encounter{}, fmt.Errorf("encounter id is required")
	}
	return getEncounter(ctx, s.sqlDB, encounterID)
}

// ListEncounters returns one page of encounters ordered by id.
func (s *Store) ListEncounters(ctx context.Context, opts storage.ListOptions) (storage.EncounterPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.EncounterPage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.EncounterPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.ParseEncounterFilter(opts.Filter)
	if err != nil {
		return storage.EncounterPage{}, fmt.Errorf("list encounters: %w", err)
	}

	query, params := pageQuery(encounterColumns, "encounters", cond, opts)
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.EncounterPage{}, fmt.Errorf("list encounters: %w", err)
	}
	page := storage.EncounterPage{Encounters: make([]storage.Encounter, 0, opts.PageSize)}
	for rows.Next() {
		encounter, err := scanEncounter(rows)
		if err != nil {
			_ = rows.Close()
			return storage.EncounterPage{}, fmt.Errorf("list encounters: %w", err)
		}
		page.Encounters = append(page.Encounters, encounter)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return storage.EncounterPage{}, fmt.Errorf("list encounters: %w", err)
	}
	_ = rows.Close()

	if len(page.Encounters) > opts.PageSize {
		page.NextPageToken = page.Encounters[opts.PageSize-1].ID
		page.Encounters = page.Encounters[:opts.PageSize]
	}
	for i := range page.Encounters {
		combatants, err := loadCombatants(ctx, s.sqlDB, page.Encounters[i].ID)
		if err != nil {
			return storage.EncounterPage{}, fmt.Errorf("list encounters: %w", err)
		}
		page.Encounters[i].Roster.Combatants = combatants
	}
	return page, nil
}

// DeleteEncounter removes an encounter and its combatants.
func (s *Store) DeleteEncounter(ctx context.Context, encounterID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return fmt.Errorf("encounter id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete encounter: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Foreign key enforcement depends on the connection pragma, so the
	// combatant rows are removed explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM encounter_combatants WHERE encounter_id = ?`, encounterID); err != nil {
		return fmt.Errorf("delete encounter combatants: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM encounters WHERE id = ?`, encounterID)
	if err != nil {
		return fmt.Errorf("delete encounter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete encounter: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete encounter: %w", err)
	}
	return nil
}

// SaveRoster replaces the roster of an encounter and bumps its revision.
func (s *Store) SaveRoster(ctx context.Context, encounterID string, r roster.Roster, updatedBy string) (storage.Encounter, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Encounter{}, err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return storage.Encounter{}, fmt.Errorf("encounter id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Encounter{}, fmt.Errorf("begin save roster: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE encounters
		    SET locked_prefix_length = ?,
		        revision = revision + 1,
		        updated_by = ?,
		        updated_at = ?
		  WHERE id = ?`,
		lockedPrefixValue(r.LockedPrefixLength),
		strings.TrimSpace(updatedBy),
		toMillis(s.timestamp()),
		encounterID,
	)
	if err != nil {
		return storage.Encounter{}, fmt.Errorf("save roster: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Encounter{}, fmt.Errorf("save roster: %w", err)
	}
	if affected == 0 {
		return storage.Encounter{}, storage.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM encounter_combatants WHERE encounter_id = ?`, encounterID); err != nil {
		return storage.Encounter{}, fmt.Errorf("clear roster: %w", err)
	}
	if err := insertCombatants(ctx, tx, encounterID, r.Combatants); err != nil {
		return storage.Encounter{}, fmt.Errorf("save roster: %w", err)
	}

	saved, err := getEncounter(ctx, tx, encounterID)
	if err != nil {
		return storage.Encounter{}, err
	}
	if err := tx.Commit(); err != nil {
		return storage.Encounter{}, fmt.Errorf("commit save roster: %w", err)
	}
	return saved, nil
}

func getEncounter(ctx context.Context, q queryer, encounterID string) (storage.Encounter, error) {
	row := q.QueryRowContext(ctx, `SELECT `+encounterColumns+` FROM encounters WHERE id = ?`, encounterID)
	encounter, err := scanEncounter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Encounter{}, storage.ErrNotFound
		}
		return storage.Encounter{}, fmt.Errorf("get encounter: %w", err)
	}
	combatants, err := loadCombatants(ctx, q, encounterID)
	if err != nil {
		return storage.Encounter{}, fmt.Errorf("get encounter: %w", err)
	}
	encounter.Roster.Combatants = combatants
	return encounter, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEncounter(row rowScanner) (storage.Encounter, error) {
	var (
		encounter storage.Encounter
		locked    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&encounter.ID,
		&encounter.Name,
		&locked,
		&encounter.Revision,
		&encounter.UpdatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Encounter{}, err
	}
	if locked.Valid {
		encounter.Roster.LockedPrefixLength = roster.PrefixLength(int(locked.Int64))
	}
	encounter.CreatedAt = fromMillis(createdAt)
	encounter.UpdatedAt = fromMillis(updatedAt)
	return encounter, nil
}

// lockedPrefixValue stores an unset prefix as NULL so legacy markers keep
// applying on load.
func lockedPrefixValue(length *int) sql.NullInt64 {
	if length == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*length), Valid: true}
}

// loadCombatants returns the roster rows in their stored order. An empty
// roster loads as a non-nil empty slice.
func loadCombatants(ctx context.Context, q queryer, encounterID string) ([]roster.Combatant, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT character_id, name, speed, turn_frequency, next_turn_at, team
		   FROM encounter_combatants
		  WHERE encounter_id = ?
		  ORDER BY position ASC`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("load combatants: %w", err)
	}
	defer rows.Close()

	combatants := make([]roster.Combatant, 0)
	for rows.Next() {
		var c roster.Combatant
		if err := rows.Scan(&c.CharacterID, &c.Name, &c.Speed, &c.TurnFrequency, &c.NextTurnAt, &c.Team); err != nil {
			return nil, fmt.Errorf("scan combatant: %w", err)
		}
		combatants = append(combatants, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load combatants: %w", err)
	}
	return combatants, nil
}

func insertCombatants(ctx context.Context, tx *sql.Tx, encounterID string, combatants []roster.Combatant) error {
	if len(combatants) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO encounter_combatants (
		   encounter_id, position, character_id, name, speed, turn_frequency, next_turn_at, team
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare combatant insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range combatants {
		if _, err := stmt.ExecContext(ctx, encounterID, i, c.CharacterID, c.Name, c.Speed, c.TurnFrequency, c.NextTurnAt, c.Team); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate combatant %s: %w", c.CharacterID, storage.ErrAlreadyExists)
			}
			return fmt.Errorf("insert combatant %s: %w", c.CharacterID, err)
		}
	}
	return nil
}
