// Package store persists one room document per game in SQLite and fans out
// change notifications to in-process subscribers.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fishyfrenzy/GlitchChess/internal/game"
	"github.com/fishyfrenzy/GlitchChess/internal/shared"
	"github.com/fishyfrenzy/GlitchChess/internal/store/migrations"
)

var (
	ErrNotFound        = errors.New("room not found")
	ErrAlreadyExists   = errors.New("already claimed")
	ErrVersionConflict = errors.New("version conflict")
)

// Room is one stored game room: the state document plus the lobby's
// first-claim-wins color slots.
type Room struct {
	Code         string
	Document     game.Document
	Version      uint64
	WhiteClaimed bool
	BlackClaimed bool
}

// Store holds room documents in SQLite. Replace is a compare-and-swap on
// the document version, so two clients racing on stale state cannot
// silently overwrite each other.
type Store struct {
	sqlDB *sql.DB

	mu   sync.Mutex
	subs map[string]map[chan game.Document]struct{}
}

// Open opens the room store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{
		sqlDB: sqlDB,
		subs:  make(map[string]map[chan game.Document]struct{}),
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateRoom inserts a room. Codes are not guaranteed globally unique; on a
// collision the last writer wins, per the room-code contract.
func (s *Store) CreateRoom(ctx context.Context, code string, doc game.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("room code is required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode room document: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO rooms (code, document, version, white_claimed, black_claimed, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		   document = excluded.document,
		   version = excluded.version,
		   white_claimed = 0,
		   black_claimed = 0,
		   updated_at = excluded.updated_at`,
		code,
		string(payload),
		doc.Version,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	s.notify(code, doc)
	return nil
}

// GetRoom reads one room by code.
func (s *Store) GetRoom(ctx context.Context, code string) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT code, document, version, white_claimed, black_claimed
		   FROM rooms
		  WHERE code = ?`,
		code,
	)
	var room Room
	var payload string
	if err := row.Scan(&room.Code, &payload, &room.Version, &room.WhiteClaimed, &room.BlackClaimed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Room{}, ErrNotFound
		}
		return Room{}, fmt.Errorf("get room: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &room.Document); err != nil {
		return Room{}, fmt.Errorf("decode room document: %w", err)
	}
	return room, nil
}

// ReplaceDocument swaps in a new document if and only if the stored version
// still matches expectedVersion. A stale commit gets ErrVersionConflict and
// must be retried against the latest state.
func (s *Store) ReplaceDocument(ctx context.Context, code string, doc game.Document, expectedVersion uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode room document: %w", err)
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE rooms
		    SET document = ?, version = ?, updated_at = ?
		  WHERE code = ? AND version = ?`,
		string(payload),
		doc.Version,
		time.Now().UTC().UnixMilli(),
		code,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("replace room document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace room document: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetRoom(ctx, code); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	s.notify(code, doc)
	return nil
}

// ClaimColor marks a color slot taken, first claim wins.
func (s *Store) ClaimColor(ctx context.Context, code string, color shared.Color) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	column := "white_claimed"
	if color == shared.Black {
		column = "black_claimed"
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE rooms SET %s = 1, updated_at = ? WHERE code = ? AND %s = 0`, column, column),
		time.Now().UTC().UnixMilli(),
		code,
	)
	if err != nil {
		return fmt.Errorf("claim color: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim color: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetRoom(ctx, code); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadyExists
	}
	return nil
}

// Subscribe registers for every committed document of a room. The returned
// cancel func must be called to release the channel. Delivery is
// best-effort: a slow subscriber drops frames rather than block a commit.
func (s *Store) Subscribe(code string) (<-chan game.Document, func()) {
	code = strings.ToUpper(strings.TrimSpace(code))
	ch := make(chan game.Document, 8)
	s.mu.Lock()
	if s.subs[code] == nil {
		s.subs[code] = make(map[chan game.Document]struct{})
	}
	s.subs[code][ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.subs[code]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(s.subs, code)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(code string, doc game.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[code] {
		select {
		case ch <- doc:
		default:
		}
	}
}
