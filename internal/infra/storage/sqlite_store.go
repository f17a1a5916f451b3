package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
)

const timeLayout = time.RFC3339Nano

// SQLiteWorldStore implements WorldStore on a SQLite database. All counter
// mutations are single conditional UPDATE statements, so concurrent actions
// against the same player or faction cannot lose updates.
type SQLiteWorldStore struct {
	db *sql.DB
}

// NewSQLiteWorldStore creates a world store backed by the given database.
func NewSQLiteWorldStore(db *sql.DB) *SQLiteWorldStore {
	return &SQLiteWorldStore{db: db}
}

func (s *SQLiteWorldStore) GetPlayer(ctx context.Context, id string) (*player.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, faction, energy, karma, rank, completed_quests, completed_achievements
		FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*player.Player, error) {
	var p player.Player
	var quests, achievements string
	err := row.Scan(&p.ID, &p.Name, &p.Faction, &p.Energy, &p.Karma, &p.Rank, &quests, &achievements)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	if err := json.Unmarshal([]byte(quests), &p.CompletedQuests); err != nil {
		return nil, fmt.Errorf("corrupt completed_quests for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(achievements), &p.CompletedAchievements); err != nil {
		return nil, fmt.Errorf("corrupt completed_achievements for %s: %w", p.ID, err)
	}
	return &p, nil
}

func (s *SQLiteWorldStore) PutPlayer(ctx context.Context, p *player.Player) error {
	quests, err := json.Marshal(emptyAsList(p.CompletedQuests))
	if err != nil {
		return err
	}
	achievements, err := json.Marshal(emptyAsList(p.CompletedAchievements))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, faction, energy, karma, rank, completed_quests, completed_achievements)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			faction = excluded.faction,
			energy = excluded.energy,
			karma = excluded.karma,
			rank = excluded.rank,
			completed_quests = excluded.completed_quests,
			completed_achievements = excluded.completed_achievements`,
		p.ID, p.Name, p.Faction, p.Energy, p.Karma, p.Rank, string(quests), string(achievements))
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteWorldStore) EnsurePlayer(ctx context.Context, p *player.Player) error {
	quests, err := json.Marshal(emptyAsList(p.CompletedQuests))
	if err != nil {
		return err
	}
	achievements, err := json.Marshal(emptyAsList(p.CompletedAchievements))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, faction, energy, karma, rank, completed_quests, completed_achievements)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		p.ID, p.Name, p.Faction, p.Energy, p.Karma, p.Rank, string(quests), string(achievements))
	if err != nil {
		return fmt.Errorf("failed to ensure player %s: %w", p.ID, err)
	}
	return nil
}

// emptyAsList keeps completed sets serialized as [] instead of null.
func emptyAsList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (s *SQLiteWorldStore) GetFaction(ctx context.Context, name string) (*player.Faction, error) {
	var f player.Faction
	err := s.db.QueryRowContext(ctx, `SELECT name, score FROM factions WHERE name = ?`, name).
		Scan(&f.Name, &f.Score)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read faction %s: %w", name, err)
	}
	return &f, nil
}

func (s *SQLiteWorldStore) ListFactions(ctx context.Context) ([]player.Faction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, score FROM factions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list factions: %w", err)
	}
	defer rows.Close()

	var factions []player.Faction
	for rows.Next() {
		var f player.Faction
		if err := rows.Scan(&f.Name, &f.Score); err != nil {
			return nil, err
		}
		factions = append(factions, f)
	}
	return factions, rows.Err()
}

func (s *SQLiteWorldStore) EnsureFaction(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO factions (name, score) VALUES (?, 0) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to ensure faction %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteWorldStore) AdjustFactionScore(ctx context.Context, name string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE factions SET score = score + ? WHERE name = ?`, delta, name)
	if err != nil {
		return fmt.Errorf("failed to adjust score of %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteWorldStore) SpendEnergy(ctx context.Context, id string, cost int) (int, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET energy = energy - ? WHERE id = ? AND energy >= ?`, cost, id, cost)
	if err != nil {
		return 0, false, fmt.Errorf("failed to spend energy for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	var energy int
	err = s.db.QueryRowContext(ctx, `SELECT energy FROM players WHERE id = ?`, id).Scan(&energy)
	if err == sql.ErrNoRows {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read energy for %s: %w", id, err)
	}
	return energy, affected > 0, nil
}

func (s *SQLiteWorldStore) GrantEnergy(ctx context.Context, id string, amount int) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET energy = energy + ? WHERE id = ?`, amount, id)
	if err != nil {
		return 0, fmt.Errorf("failed to grant energy to %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNotFound
	}

	var energy int
	if err := s.db.QueryRowContext(ctx, `SELECT energy FROM players WHERE id = ?`, id).Scan(&energy); err != nil {
		return 0, fmt.Errorf("failed to read energy for %s: %w", id, err)
	}
	return energy, nil
}

func (s *SQLiteWorldStore) AssignFaction(ctx context.Context, id, faction string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET faction = ? WHERE id = ? AND faction = ''`, faction, id)
	if err != nil {
		return false, fmt.Errorf("failed to assign faction for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish "already in a faction" from "no such player".
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *SQLiteWorldStore) SetKarma(ctx context.Context, id string, karma int) error {
	return s.setPlayerField(ctx, id, `UPDATE players SET karma = ? WHERE id = ?`, karma)
}

func (s *SQLiteWorldStore) SetRank(ctx context.Context, id, rank string) error {
	return s.setPlayerField(ctx, id, `UPDATE players SET rank = ? WHERE id = ?`, rank)
}

func (s *SQLiteWorldStore) setPlayerField(ctx context.Context, id, query string, value interface{}) error {
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteWorldStore) AddCompletedQuest(ctx context.Context, id, questID string) error {
	return s.addCompleted(ctx, id, "completed_quests", questID)
}

func (s *SQLiteWorldStore) AddCompletedAchievement(ctx context.Context, id, achievementID string) error {
	return s.addCompleted(ctx, id, "completed_achievements", achievementID)
}

// addCompleted appends entryID to the named JSON set column, skipping
// duplicates. The read and write run inside one transaction.
func (s *SQLiteWorldStore) addCompleted(ctx context.Context, id, column, entryID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT `+column+` FROM players WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s for %s: %w", column, id, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return fmt.Errorf("corrupt %s for %s: %w", column, id, err)
	}
	for _, existing := range ids {
		if existing == entryID {
			return nil // already recorded
		}
	}
	ids = append(ids, entryID)

	updated, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE players SET `+column+` = ? WHERE id = ?`, string(updated), id); err != nil {
		return fmt.Errorf("failed to update %s for %s: %w", column, id, err)
	}
	return tx.Commit()
}

func (s *SQLiteWorldStore) GetRound(ctx context.Context) (player.Round, error) {
	var r player.Round
	var started, ends string
	err := s.db.QueryRowContext(ctx, `SELECT number, started_at, ends_at FROM rounds WHERE id = 1`).
		Scan(&r.Number, &started, &ends)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to read round: %w", err)
	}
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return r, fmt.Errorf("corrupt round started_at: %w", err)
	}
	if r.EndsAt, err = time.Parse(timeLayout, ends); err != nil {
		return r, fmt.Errorf("corrupt round ends_at: %w", err)
	}
	return r, nil
}

func (s *SQLiteWorldStore) AdvanceRound(ctx context.Context, baseline int, next player.Round) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE factions SET score = ?`, baseline); err != nil {
		return fmt.Errorf("failed to reset faction scores: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (id, number, started_at, ends_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			started_at = excluded.started_at,
			ends_at = excluded.ends_at`,
		next.Number, next.StartedAt.Format(timeLayout), next.EndsAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to advance round: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteWorldStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteWorldStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteWorldStore) IncrBy(ctx context.Context, key string, delta int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	current := 0
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	if err == nil {
		if current, err = strconv.Atoi(raw); err != nil {
			return 0, fmt.Errorf("counter %s holds non-integer value %q", key, raw)
		}
	}

	current += delta
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, strconv.Itoa(current))
	if err != nil {
		return 0, fmt.Errorf("failed to write counter %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return current, nil
}
