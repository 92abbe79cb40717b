package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
	"payment-router/internal/storage"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func init() {
	storage.RegisterFactory("sqlite", func(config storage.StorageConfig) (storage.Storage, error) {
		sqliteConfig, ok := config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for SQLite storage")
		}
		return NewAdapter(sqliteConfig)
	})
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Create default user if none exists
	if err := adapter.createDefaultUser(); err != nil {
		return nil, fmt.Errorf("failed to create default user: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Health() error {
	return a.db.Ping()
}

func (a *Adapter) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS routing_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL DEFAULT '',
			selected_provider TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			profile TEXT NOT NULL DEFAULT '',
			candidates TEXT NOT NULL DEFAULT '[]',
			context TEXT NOT NULL DEFAULT '{}',
			metadata TEXT NOT NULL DEFAULT '{}',
			processing_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_merchant ON decisions(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_provider ON decisions(selected_provider)`,
	}

	for _, query := range queries {
		if _, err := a.db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (a *Adapter) createDefaultUser() error {
	count, err := a.GetUserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = a.db.Exec(
		`INSERT INTO users (username, password_hash, is_default) VALUES (?, ?, 1)`,
		"admin", string(hashedPassword),
	)
	return err
}

// Users

func (a *Adapter) CreateUser(username, password string) (*storage.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	result, err := a.db.Exec(
		`INSERT INTO users (username, password_hash, is_default) VALUES (?, ?, 0)`,
		username, string(hashedPassword),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &storage.User{
		ID:           int(id),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (a *Adapter) GetUserByUsername(username string) (*storage.User, error) {
	user := &storage.User{}
	err := a.db.QueryRow(
		`SELECT id, username, password_hash, is_default, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsDefault, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Adapter) ValidateUser(username, password string) (*storage.User, error) {
	user, err := a.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

func (a *Adapter) UpdateUserCredentials(userID int, username, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = a.db.Exec(
		`UPDATE users SET username = ?, password_hash = ?, is_default = 0 WHERE id = ?`,
		username, string(hashedPassword), userID,
	)
	return err
}

func (a *Adapter) GetUserCount() (int, error) {
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// Routing configuration

func (a *Adapter) GetConfig(key string) ([]byte, error) {
	var value string
	err := a.db.QueryRow(`SELECT value FROM routing_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (a *Adapter) SetConfig(key string, value []byte) error {
	_, err := a.db.Exec(
		`INSERT INTO routing_config (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	return err
}

func (a *Adapter) GetAllConfig() (map[string][]byte, error) {
	rows, err := a.db.Query(`SELECT key, value FROM routing_config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = []byte(value)
	}
	return out, rows.Err()
}

// Decisions

func (a *Adapter) SaveDecision(record *storage.DecisionRecord) error {
	_, err := a.db.Exec(
		`INSERT INTO decisions (id, merchant_id, selected_provider, reason, profile, candidates, context, metadata, processing_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.MerchantID, record.SelectedProvider, record.Reason, record.Profile,
		string(record.Candidates), string(record.Context), string(record.Metadata),
		record.ProcessingMs, record.CreatedAt,
	)
	return err
}

func (a *Adapter) GetDecision(id string) (*storage.DecisionRecord, error) {
	record := &storage.DecisionRecord{}
	var candidates, context, metadata string
	err := a.db.QueryRow(
		`SELECT id, merchant_id, selected_provider, reason, profile, candidates, context, metadata, processing_ms, created_at
		 FROM decisions WHERE id = ?`, id,
	).Scan(&record.ID, &record.MerchantID, &record.SelectedProvider, &record.Reason, &record.Profile,
		&candidates, &context, &metadata, &record.ProcessingMs, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.Candidates = []byte(candidates)
	record.Context = []byte(context)
	record.Metadata = []byte(metadata)
	return record, nil
}

func decisionFilterClause(filters storage.DecisionFilters) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filters.MerchantID != "" {
		conditions = append(conditions, "merchant_id = ?")
		args = append(args, filters.MerchantID)
	}
	if filters.Provider != "" {
		conditions = append(conditions, "selected_provider = ?")
		args = append(args, filters.Provider)
	}
	if filters.Profile != "" {
		conditions = append(conditions, "profile = ?")
		args = append(args, filters.Profile)
	}
	if !filters.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filters.Since)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (a *Adapter) ListDecisions(filters storage.DecisionFilters, limit, offset int) ([]*storage.DecisionRecord, error) {
	where, args := decisionFilterClause(filters)
	query := `SELECT id, merchant_id, selected_provider, reason, profile, candidates, context, metadata, processing_ms, created_at
		 FROM decisions` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*storage.DecisionRecord
	for rows.Next() {
		record := &storage.DecisionRecord{}
		var candidates, context, metadata string
		if err := rows.Scan(&record.ID, &record.MerchantID, &record.SelectedProvider, &record.Reason, &record.Profile,
			&candidates, &context, &metadata, &record.ProcessingMs, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.Candidates = []byte(candidates)
		record.Context = []byte(context)
		record.Metadata = []byte(metadata)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (a *Adapter) CountDecisions(filters storage.DecisionFilters) (int, error) {
	where, args := decisionFilterClause(filters)
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM decisions`+where, args...).Scan(&count)
	return count, err
}

func (a *Adapter) DeleteOldDecisions(before time.Time) (int64, error) {
	result, err := a.db.Exec(`DELETE FROM decisions WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
