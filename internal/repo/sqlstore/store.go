// Package sqlstore stores each entity as a JSON value in a two-column table.
// sqlite is used for file DSNs and pgx for postgres URLs.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

const (
	chatsTable = "chats"
	usersTable = "users"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

type store struct {
	log     *logger.Logger
	db      *sql.DB
	dialect dialect
}

func driverFor(dsn string) (string, dialect) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", dialectPostgres
	}
	return "sqlite", dialectSQLite
}

// NewStore opens dsn and provisions the tables.
func NewStore(ctx context.Context, dsn string) (repo.Store, error) {
	driver, d := driverFor(dsn)
	if d == dialectSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == dialectSQLite {
		// one writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &store{
		log:     logger.MustNamed("sqlstore"),
		db:      db,
		dialect: d,
	}
	s.provision(ctx)
	return s, nil
}

func (s *store) provision(ctx context.Context) {
	for _, table := range []string{chatsTable, usersTable} {
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, value TEXT NOT NULL)", table)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Warnw("provision table failed", "table", table, "error", err)
		}
	}
}

// rebind turns ? placeholders into $n for postgres.
func (s *store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *store) get(ctx context.Context, table, id string) ([]byte, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	var value string
	query := s.rebind(fmt.Sprintf("SELECT value FROM %s WHERE id = ?", table))
	err = conn.QueryRowContext(ctx, query, id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s %s: %w", table, id, err)
	}
	return []byte(value), nil
}

func (s *store) put(ctx context.Context, table, id string, value []byte) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	var exists int
	query := s.rebind(fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE id = ?", table))
	if err := conn.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s %s: %w", table, id, err)
	}

	if exists > 0 {
		query = s.rebind(fmt.Sprintf("UPDATE %s SET value = ? WHERE id = ?", table))
		_, err = conn.ExecContext(ctx, query, string(value), id)
	} else {
		query = s.rebind(fmt.Sprintf("INSERT INTO %s (id, value) VALUES (?, ?)", table))
		_, err = conn.ExecContext(ctx, query, id, string(value))
	}
	if err != nil {
		return fmt.Errorf("write %s %s: %w", table, id, err)
	}
	return nil
}

func (s *store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	data, err := s.get(ctx, chatsTable, id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeChat(data)
}

func (s *store) SaveChat(ctx context.Context, chat *models.Chat) error {
	data, err := repo.EncodeChat(chat)
	if err != nil {
		return err
	}
	return s.put(ctx, chatsTable, chat.ID, data)
}

func (s *store) GetUser(ctx context.Context, id string) (*models.User, error) {
	data, err := s.get(ctx, usersTable, id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeUser(data)
}

func (s *store) SaveUser(ctx context.Context, user *models.User) error {
	data, err := repo.EncodeUser(user)
	if err != nil {
		return err
	}
	return s.put(ctx, usersTable, user.ID, data)
}

func (s *store) Close(ctx context.Context) error {
	return s.db.Close()
}
