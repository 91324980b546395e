package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/domain"
)

// driverName is the modernc database/sql driver.
const driverName = "sqlite"

// connParams applies per-connection pragmas. Writers wait up to busyTimeoutMS for the lock, and
// every transaction begins IMMEDIATE so a read-then-write move holds the write lock from its first read.
const connParams = "?_pragma=busy_timeout(" + busyTimeoutMS + ")&_pragma=foreign_keys(1)&_txlock=immediate"

const busyTimeoutMS = "5000"

// Repository stores boards, groups, items, and move history in SQLite.
type Repository struct {
	db *sql.DB
}

var _ app.Repository = (*Repository)(nil)

// Open creates the parent dir, opens path, and migrates the schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path+connParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:tackboard-%s?mode=memory&cache=shared&%s", uuid.NewString(), strings.TrimPrefix(connParams, "?"))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate applies the schema idempotently.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS groups_v1 (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			title TEXT NOT NULL,
			group_order INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			group_id TEXT NOT NULL,
			item_order INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			fields_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_groups_board_order ON groups_v1(board_id, group_order);`,
		`CREATE INDEX IF NOT EXISTS idx_items_board_group_order ON items(board_id, group_id, item_order);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_board_created_at ON change_events(board_id, created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateBoard creates board.
func (r *Repository) CreateBoard(ctx context.Context, b domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards(id, slug, name, description, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Slug, b.Name, b.Description, ts(b.CreatedAt), ts(b.UpdatedAt), nullableTS(b.ArchivedAt))
	return err
}

// UpdateBoard updates state for the requested operation.
func (r *Repository) UpdateBoard(ctx context.Context, b domain.Board) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boards
		SET slug = ?, name = ?, description = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, b.Slug, b.Name, b.Description, ts(b.UpdatedAt), nullableTS(b.ArchivedAt), b.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetBoard returns board.
func (r *Repository) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at, archived_at
		FROM boards
		WHERE id = ?
	`, id)
	return scanBoard(row)
}

// ListBoards lists boards.
func (r *Repository) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	query := `
		SELECT id, slug, name, description, created_at, updated_at, archived_at
		FROM boards
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateGroup creates group.
func (r *Repository) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups_v1(id, board_id, title, group_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.BoardID, g.Title, g.Order, ts(g.CreatedAt), ts(g.UpdatedAt))
	return err
}

// ListGroups lists groups.
func (r *Repository) ListGroups(ctx context.Context, boardID string) ([]domain.Group, error) {
	return listGroups(ctx, r.db, boardID)
}

func listGroups(ctx context.Context, q querierContext, boardID string) ([]domain.Group, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, board_id, title, group_order, created_at, updated_at
		FROM groups_v1
		WHERE board_id = ?
		ORDER BY group_order ASC, id ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Group{}
	for rows.Next() {
		var (
			g          domain.Group
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&g.ID, &g.BoardID, &g.Title, &g.Order, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		g.CreatedAt = parseTS(createdRaw)
		g.UpdatedAt = parseTS(updatedRaw)
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateItem creates an item and records a create event in one transaction.
func (r *Repository) CreateItem(ctx context.Context, i domain.Item) (err error) {
	fieldsJSON, err := json.Marshal(i.Fields)
	if err != nil {
		return fmt.Errorf("encode item fields: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items(id, board_id, group_id, item_order, title, description, fields_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.BoardID, i.GroupID, i.Order, i.Title, i.Description, string(fieldsJSON), ts(i.CreatedAt), ts(i.UpdatedAt))
	if err != nil {
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:   i.BoardID,
		ItemID:    i.ID,
		Operation: domain.ChangeOperationCreate,
		Metadata: map[string]string{
			"group_id": i.GroupID,
			"order":    strconv.Itoa(i.Order),
			"title":    i.Title,
		},
		OccurredAt: i.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetItem returns item.
func (r *Repository) GetItem(ctx context.Context, id string) (domain.Item, error) {
	return getItem(ctx, r.db, id)
}

func getItem(ctx context.Context, q querierContext, id string) (domain.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, board_id, group_id, item_order, title, description, fields_json, created_at, updated_at
		FROM items
		WHERE id = ?
	`, id)
	return scanItem(row)
}

// ListItems lists items.
func (r *Repository) ListItems(ctx context.Context, boardID string) ([]domain.Item, error) {
	return listItems(ctx, r.db, boardID)
}

func listItems(ctx context.Context, q querierContext, boardID string) ([]domain.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, board_id, group_id, item_order, title, description, fields_json, created_at, updated_at
		FROM items
		WHERE board_id = ?
		ORDER BY group_id ASC, item_order ASC, id ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpdateItemOrders runs plan against the item's board and persists its rows and event in the
// same IMMEDIATE transaction. Any missing row aborts the whole batch.
func (r *Repository) UpdateItemOrders(ctx context.Context, itemID string, plan app.MovePlan) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	item, err := getItem(ctx, tx, itemID)
	if err != nil {
		return err
	}
	groups, err := listGroups(ctx, tx, item.BoardID)
	if err != nil {
		return err
	}
	items, err := listItems(ctx, tx, item.BoardID)
	if err != nil {
		return err
	}
	rows, event, err := plan(app.MoveSnapshot{Item: item, Groups: groups, Items: items})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return tx.Rollback()
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE items
		SET group_id = ?, item_order = ?, updated_at = ?
		WHERE id = ? AND board_id = ?
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		var res sql.Result
		res, err = stmt.ExecContext(ctx, row.GroupID, row.Order, ts(row.UpdatedAt), row.ID, item.BoardID)
		if err != nil {
			return fmt.Errorf("update item %q order: %w", row.ID, err)
		}
		if err = translateNoRows(res); err != nil {
			return fmt.Errorf("update item %q order: %w", row.ID, err)
		}
	}

	event.BoardID = item.BoardID
	if err = insertChangeEvent(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit()
}

// ListChangeEvents lists newest-first change events for a board.
func (r *Repository) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, item_id, operation, metadata_json, created_at
		FROM change_events
		WHERE board_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, boardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.BoardID, &event.ItemID, &opRaw, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = domain.ChangeOperation(strings.TrimSpace(strings.ToLower(opRaw)))
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// querierContext is the read side shared by *sql.DB and *sql.Tx.
type querierContext interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// insertChangeEvent inserts a change-event ledger record.
func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(board_id, item_id, operation, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.BoardID,
		event.ItemID,
		string(event.Operation),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanBoard handles scan board.
func scanBoard(s scanner) (domain.Board, error) {
	var (
		b          domain.Board
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&b.ID, &b.Slug, &b.Name, &b.Description, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, app.ErrNotFound
		}
		return domain.Board{}, err
	}
	b.CreatedAt = parseTS(createdRaw)
	b.UpdatedAt = parseTS(updatedRaw)
	b.ArchivedAt = parseNullTS(archived)
	return b, nil
}

// scanItem handles scan item.
func scanItem(s scanner) (domain.Item, error) {
	var (
		i          domain.Item
		fieldsRaw  string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&i.ID, &i.BoardID, &i.GroupID, &i.Order, &i.Title, &i.Description, &fieldsRaw, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, app.ErrNotFound
		}
		return domain.Item{}, err
	}
	if strings.TrimSpace(fieldsRaw) == "" {
		fieldsRaw = "{}"
	}
	if err := json.Unmarshal([]byte(fieldsRaw), &i.Fields); err != nil {
		return domain.Item{}, fmt.Errorf("decode fields_json: %w", err)
	}
	if i.Fields == nil {
		i.Fields = map[string]string{}
	}
	i.CreatedAt = parseTS(createdRaw)
	i.UpdatedAt = parseTS(updatedRaw)
	return i, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
