// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/officeserver/models"
)

// PostgreSQL is the raw-SQL chat archive.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := createChatTable(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func createChatTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			room_number TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (room_number, created_at);
	`)
	return err
}

func (p *PostgreSQL) SaveChatMessage(rec models.ChatRecord) error {
	_, err := p.db.Exec(
		`INSERT INTO chat_messages (room_number, author, content, created_at) VALUES ($1, $2, $3, $4)`,
		rec.RoomNumber, rec.Author, rec.Content, rec.CreatedAt,
	)
	return err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
