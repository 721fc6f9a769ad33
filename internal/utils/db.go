package utils

import (
	"database/sql"
	"net/url"

	_ "github.com/lib/pq"

	"tenant-api/internal/logger"
)

// BuildPostgresDSNFromEnv：由 PG_* 变量拼装 DSN
// 约束：密码经 URL 转义；未设置 PG_DB 时使用 tenants 库
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   EnvString("PG_HOST", "localhost") + ":" + EnvString("PG_PORT", "5432"),
		Path:   "/" + EnvString("PG_DB", "tenants"),
	}
	user := EnvString("PG_USER", "postgres")
	if pass := EnvString("PG_PASSWORD", ""); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", EnvString("PG_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgresFromEnv：打开连接池；sql.Open 不建立连接，可用性由调用方 Ping 判定
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	maxOpen := EnvInt("PG_MAX_OPEN_CONNS", 20)
	maxIdle := EnvInt("PG_MAX_IDLE_CONNS", 10)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	logger.L().Debug("pg_pool", "max_open", maxOpen, "max_idle", maxIdle)
	return db, nil
}
