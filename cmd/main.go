// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"tenant-api/internal/api"
	"tenant-api/internal/cache"
	"tenant-api/internal/logger"
	"tenant-api/internal/metrics"
	"tenant-api/internal/middleware"
	"tenant-api/internal/migrate"
	"tenant-api/internal/store"
	"tenant-api/internal/utils"
	"tenant-api/internal/version"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Info("starting", "version", version.String())
	apiBase := utils.EnvString("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	// 背景：数据库仅用于运行持久化；连接失败时降级为无持久化模式，归属计算照常提供
	var runs api.RunStore
	persist := utils.EnvBool("PERSIST_RUNS", false)
	if utils.EnvBool("PG_ENABLED", true) {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		} else {
			l.Info("db_ready")
			runs = store.AttachDB(db)
		}
	}
	if runs == nil && persist {
		l.Warn("persist_disabled", "reason", "no_database")
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
	}
	ttl := utils.EnvSeconds("TENANT_CACHE_TTL_S", api.DefaultCacheTTL)
	lru := cache.NewLRU(utils.EnvInt("TENANT_CACHE_SIZE", 256), ttl)
	opts := api.Options{
		MaxFeatures: utils.EnvInt("TENANT_MAX_FEATURES", 20000),
		CacheTTL:    ttl,
		Persist:     persist,
	}
	apiMux := api.BuildRoutes(runs, rc, lru, opts)

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.HandleFunc(apiBase+"/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(version.String() + "\n"))
	})

	addr := utils.EnvString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	if utils.EnvBool("TLS_ENABLE", false) {
		certPath := utils.EnvString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "tenant-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}
