// Package database is the sqlite-backed persistence layer for ServiceSpecs,
// HealthcheckResults, and the ServiceLatest projection.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a sqlx handle to the probing engine's sqlite database.
type DB struct {
	*sqlx.DB
}

// New opens (or creates) the sqlite database at path. ":memory:" is accepted for tests. WAL
// mode is enabled for file-backed databases.
func New(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	conn, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{DB: conn}
	if err := db.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// InitSchema creates every table/index this package owns if it doesn't already exist.
func (db *DB) InitSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS service_specs (
	service_id            INTEGER PRIMARY KEY,
	host                  TEXT NOT NULL,
	port                  INTEGER NOT NULL DEFAULT 0,
	method                TEXT NOT NULL,
	polling_interval_sec  INTEGER NOT NULL DEFAULT 30,
	timeout_sec           INTEGER NOT NULL DEFAULT 5,
	expected_status       INTEGER NOT NULL DEFAULT 200,
	status_mapping        TEXT NOT NULL DEFAULT '{}',
	http_method           TEXT NOT NULL DEFAULT 'GET',
	headers               TEXT NOT NULL DEFAULT '{}',
	body                  TEXT NOT NULL DEFAULT '',
	ssl_verify            INTEGER NOT NULL DEFAULT 0,
	follow_redirects      INTEGER NOT NULL DEFAULT 0,
	healthcheck_path      TEXT NOT NULL DEFAULT '',
	tcp_send_data         TEXT NOT NULL DEFAULT '',
	tcp_expect_data       TEXT NOT NULL DEFAULT '',
	udp_send_data         TEXT NOT NULL DEFAULT '',
	udp_expect_data       TEXT NOT NULL DEFAULT '',
	icmp_packet_count     INTEGER NOT NULL DEFAULT 3,
	dns_query_type        TEXT NOT NULL DEFAULT 'A',
	dns_expected_result   TEXT NOT NULL DEFAULT '',
	kafka_topic           TEXT NOT NULL DEFAULT '',
	kafka_client_id       TEXT NOT NULL DEFAULT '',
	frontend_host_override TEXT NOT NULL DEFAULT '',
	created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS service_latest (
	service_id       INTEGER PRIMARY KEY,
	current_status   TEXT NOT NULL DEFAULT 'unknown',
	last_checked_at  DATETIME
);

CREATE TABLE IF NOT EXISTS healthcheck_results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	service_id   INTEGER NOT NULL,
	status       TEXT NOT NULL,
	status_code  INTEGER,
	error        TEXT,
	latency_ms   INTEGER NOT NULL DEFAULT 0,
	checked_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_healthcheck_results_service_id ON healthcheck_results(service_id);
CREATE INDEX IF NOT EXISTS idx_healthcheck_results_checked_at ON healthcheck_results(checked_at);

CREATE TRIGGER IF NOT EXISTS trg_service_specs_updated_at
AFTER UPDATE ON service_specs
BEGIN
	UPDATE service_specs SET updated_at = CURRENT_TIMESTAMP WHERE service_id = NEW.service_id;
END;
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck() error {
	return db.Ping()
}
