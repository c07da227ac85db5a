package database

import (
	"database/sql"
	"fmt"
	log "log/slog"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// EnsurePostgresDatabase 目标库不存在时先连 postgres 库把它建出来
func EnsurePostgresDatabase(dsn string) error {
	adminDSN, dbName, err := splitPostgresDSN(dsn)
	if err != nil {
		return err
	}
	if dbName == "" || dbName == "postgres" {
		return nil
	}

	adminDB, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer func() { _ = adminDB.Close() }()

	var exists bool
	if err = adminDB.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err = adminDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	log.Info("Created postgres database", "name", dbName)
	return nil
}

// splitPostgresDSN 返回指向 postgres 库的 DSN 以及原目标库名
// 同时支持 URL 形式与 key=value 形式
func splitPostgresDSN(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("invalid postgres dsn: %w", err)
		}
		dbName := strings.TrimPrefix(u.Path, "/")
		u.Path = "/postgres"
		return u.String(), dbName, nil
	}

	var dbName string
	fields := strings.Fields(dsn)
	for i, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if ok && k == "dbname" {
			dbName = v
			fields[i] = "dbname=postgres"
		}
	}
	return strings.Join(fields, " "), dbName, nil
}
