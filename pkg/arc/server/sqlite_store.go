// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

const taskTable = "arc_tasks"

// SQLiteTaskStore persists task records in a SQLite database, so task.get
// keeps working across process restarts when the server is configured with
// the sqlite storage driver.
type SQLiteTaskStore struct {
	db *sql.DB
}

// OpenSQLiteTaskStore opens the database at path and ensures the schema.
func OpenSQLiteTaskStore(path string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite task store: %w", err)
	}
	store, err := NewSQLiteTaskStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteTaskStore wraps an existing database handle and ensures schema.
func NewSQLiteTaskStore(db *sql.DB) (*SQLiteTaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureTaskSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteTaskStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteTaskStore) Close() error {
	return s.db.Close()
}

func ensureTaskSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			task_json BLOB NOT NULL
		);`, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_agent ON %s(agent_id);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at);`, taskTable, taskTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts the task record.
func (s *SQLiteTaskStore) Save(ctx context.Context, agentID string, task *arc.Task) error {
	if task == nil || task.TaskID == "" {
		return errors.Newf(errors.CodeInternal, "task with empty id")
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.TaskID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, agent_id, status, created_at, task_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			status = excluded.status,
			created_at = excluded.created_at,
			task_json = excluded.task_json;`, taskTable)
	_, err = s.db.ExecContext(ctx, query,
		task.TaskID, agentID, task.Status, task.CreatedAt.UnixMilli(), payload)
	return err
}

// Get returns the task for taskID or TaskNotFound.
func (s *SQLiteTaskStore) Get(ctx context.Context, taskID string) (*arc.Task, error) {
	query := fmt.Sprintf(`SELECT task_json FROM %s WHERE id = ?;`, taskTable)
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, taskID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.CodeTaskNotFound, "task not found: %s", taskID).
			WithContext("task_id", taskID)
	}
	if err != nil {
		return nil, err
	}
	var task arc.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task %s: %w", taskID, err)
	}
	return &task, nil
}

// List returns tasks matching the filter, newest first.
func (s *SQLiteTaskStore) List(ctx context.Context, filter TaskFilter) ([]*arc.Task, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Agent != "" {
		conds = append(conds, "agent_id = ?")
		args = append(args, filter.Agent)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	query := fmt.Sprintf(`SELECT task_json FROM %s`, taskTable)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*arc.Task
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var task arc.Task
		if err := json.Unmarshal(payload, &task); err != nil {
			return nil, err
		}
		out = append(out, &task)
	}
	return out, rows.Err()
}
