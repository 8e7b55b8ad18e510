package probe

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// resolvePostgresHost applies the frontendHostOverride rule: strip any scheme/port/path and
// use the remaining hostname in place of spec.Host.
func resolvePostgresHost(spec Spec) string {
	if spec.FrontendHostOverride == "" {
		return spec.Host
	}
	raw := spec.FrontendHostOverride
	if !strings.Contains(raw, "://") {
		raw = "scheme://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return spec.FrontendHostOverride
	}
	return u.Hostname()
}

func probePostgres(ctx context.Context, spec Spec, deps Deps) Result {
	host := resolvePostgresHost(spec)

	user := deps.PostgresUser
	if user == "" {
		user = "postgres"
	}
	password := deps.PostgresPassword
	dbname := deps.PostgresDB
	if dbname == "" {
		dbname = "service_weaver"
	}
	sslmode := deps.PostgresSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(user), url.QueryEscape(password), host, spec.Port, dbname, sslmode)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("postgres open failed: %w", err)}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("postgres ping failed: %w", err)}
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return Result{Status: StatusDegraded, Err: fmt.Errorf("postgres version query failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
