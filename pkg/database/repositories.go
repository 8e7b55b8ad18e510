package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
)

// SqliteStore implements spec.Store and spec.ResultSink against the sqlite schema owned by
// this package. A single value satisfies both contracts, one repository per aggregate.
type SqliteStore struct {
	db *DB
}

// NewSqliteStore creates a repository backed by db.
func NewSqliteStore(db *DB) *SqliteStore {
	return &SqliteStore{db: db}
}

// ListAll returns every ServiceSpec row, decoding the JSON-TEXT headers/status_mapping columns
// and carrying each service's persisted last_checked_at in from service_latest so a freshly
// started process can still honor each service's polling interval instead of reprobing
// everything on the first tick.
func (s *SqliteStore) ListAll(ctx context.Context) ([]probe.Spec, error) {
	var rows []serviceSpecRow
	query := `
		SELECT service_specs.*, service_latest.last_checked_at AS last_checked_at
		FROM service_specs
		LEFT JOIN service_latest ON service_latest.service_id = service_specs.service_id
		ORDER BY service_specs.service_id
	`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list service specs: %w", err)
	}

	specs := make([]probe.Spec, 0, len(rows))
	for _, row := range rows {
		ps, err := specFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode service spec %d: %w", row.ServiceID, err)
		}
		specs = append(specs, ps)
	}
	return specs, nil
}

func specFromRow(row serviceSpecRow) (probe.Spec, error) {
	headers, err := (&row).unmarshalMap(row.Headers)
	if err != nil {
		return probe.Spec{}, fmt.Errorf("unmarshal headers: %w", err)
	}
	statusMapping, err := (&row).unmarshalMap(row.StatusMapping)
	if err != nil {
		return probe.Spec{}, fmt.Errorf("unmarshal status_mapping: %w", err)
	}

	return probe.Spec{
		ServiceID:            row.ServiceID,
		Host:                 row.Host,
		Port:                 row.Port,
		Method:               probe.Method(row.Method),
		PollingIntervalSec:   row.PollingIntervalSec,
		TimeoutSec:           row.TimeoutSec,
		ExpectedStatus:       row.ExpectedStatus,
		StatusMapping:        statusMapping,
		HTTPMethod:           row.HTTPMethod,
		Headers:              headers,
		Body:                 row.Body,
		SSLVerify:            row.SSLVerify,
		FollowRedirects:      row.FollowRedirects,
		HealthcheckPath:      row.HealthcheckPath,
		TCPSendData:          row.TCPSendData,
		TCPExpectData:        row.TCPExpectData,
		UDPSendData:          row.UDPSendData,
		UDPExpectData:        row.UDPExpectData,
		ICMPPacketCount:      row.ICMPPacketCount,
		DNSQueryType:         row.DNSQueryType,
		DNSExpectedResult:    row.DNSExpectedResult,
		KafkaTopic:           row.KafkaTopic,
		KafkaClientID:        row.KafkaClientID,
		FrontendHostOverride: row.FrontendHostOverride,
		LastCheckedAt:        row.LastCheckedAt,
	}, nil
}

// InsertSpec writes a new ServiceSpec row. Primarily used by tests and seed scripts; the engine
// itself only reads through ListAll.
func (s *SqliteStore) InsertSpec(ctx context.Context, ps probe.Spec) error {
	var row serviceSpecRow
	headers, err := (&row).marshalMap(ps.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	statusMapping, err := (&row).marshalMap(ps.StatusMapping)
	if err != nil {
		return fmt.Errorf("marshal status_mapping: %w", err)
	}

	query := `
		INSERT INTO service_specs (
			service_id, host, port, method, polling_interval_sec, timeout_sec, expected_status,
			status_mapping, http_method, headers, body, ssl_verify, follow_redirects,
			healthcheck_path, tcp_send_data, tcp_expect_data, udp_send_data, udp_expect_data,
			icmp_packet_count, dns_query_type, dns_expected_result, kafka_topic, kafka_client_id,
			frontend_host_override
		) VALUES (
			:service_id, :host, :port, :method, :polling_interval_sec, :timeout_sec, :expected_status,
			:status_mapping, :http_method, :headers, :body, :ssl_verify, :follow_redirects,
			:healthcheck_path, :tcp_send_data, :tcp_expect_data, :udp_send_data, :udp_expect_data,
			:icmp_packet_count, :dns_query_type, :dns_expected_result, :kafka_topic, :kafka_client_id,
			:frontend_host_override
		)
		ON CONFLICT(service_id) DO UPDATE SET
			host = excluded.host, port = excluded.port, method = excluded.method,
			polling_interval_sec = excluded.polling_interval_sec, timeout_sec = excluded.timeout_sec,
			expected_status = excluded.expected_status, status_mapping = excluded.status_mapping,
			http_method = excluded.http_method, headers = excluded.headers, body = excluded.body,
			ssl_verify = excluded.ssl_verify, follow_redirects = excluded.follow_redirects,
			healthcheck_path = excluded.healthcheck_path, tcp_send_data = excluded.tcp_send_data,
			tcp_expect_data = excluded.tcp_expect_data, udp_send_data = excluded.udp_send_data,
			udp_expect_data = excluded.udp_expect_data, icmp_packet_count = excluded.icmp_packet_count,
			dns_query_type = excluded.dns_query_type, dns_expected_result = excluded.dns_expected_result,
			kafka_topic = excluded.kafka_topic, kafka_client_id = excluded.kafka_client_id,
			frontend_host_override = excluded.frontend_host_override
	`
	_, err = s.db.NamedExecContext(ctx, query, serviceSpecRow{
		ServiceID:            ps.ServiceID,
		Host:                 ps.Host,
		Port:                 ps.Port,
		Method:               string(ps.Method),
		PollingIntervalSec:   ps.PollingIntervalSec,
		TimeoutSec:           ps.TimeoutSec,
		ExpectedStatus:       ps.ExpectedStatus,
		StatusMapping:        statusMapping,
		HTTPMethod:           ps.HTTPMethod,
		Headers:              headers,
		Body:                 ps.Body,
		SSLVerify:            ps.SSLVerify,
		FollowRedirects:      ps.FollowRedirects,
		HealthcheckPath:      ps.HealthcheckPath,
		TCPSendData:          ps.TCPSendData,
		TCPExpectData:        ps.TCPExpectData,
		UDPSendData:          ps.UDPSendData,
		UDPExpectData:        ps.UDPExpectData,
		ICMPPacketCount:      ps.ICMPPacketCount,
		DNSQueryType:         ps.DNSQueryType,
		DNSExpectedResult:    ps.DNSExpectedResult,
		KafkaTopic:           ps.KafkaTopic,
		KafkaClientID:        ps.KafkaClientID,
		FrontendHostOverride: ps.FrontendHostOverride,
	})
	if err != nil {
		return fmt.Errorf("insert service spec: %w", err)
	}
	return nil
}

// UpdateLatest upserts the service_latest projection for serviceID.
func (s *SqliteStore) UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error {
	query := `
		INSERT INTO service_latest (service_id, current_status, last_checked_at)
		VALUES (?, ?, ?)
		ON CONFLICT(service_id) DO UPDATE SET
			current_status = excluded.current_status,
			last_checked_at = excluded.last_checked_at
	`
	if _, err := s.db.ExecContext(ctx, query, serviceID, string(status), checkedAt); err != nil {
		return fmt.Errorf("update service latest: %w", err)
	}
	return nil
}

// GetLatest returns the latest known status for serviceID, or (Latest{}, sql.ErrNoRows) if
// no check has ever completed for it.
func (s *SqliteStore) GetLatest(ctx context.Context, serviceID int64) (spec.Latest, error) {
	var row serviceLatestRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM service_latest WHERE service_id = ?`, serviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return spec.Latest{}, err
		}
		return spec.Latest{}, fmt.Errorf("get service latest: %w", err)
	}
	return spec.Latest{CurrentStatus: probe.Status(row.CurrentStatus), LastCheckedAt: row.LastCheckedAt}, nil
}

// AppendResult persists one completed HealthcheckResult.
func (s *SqliteStore) AppendResult(ctx context.Context, result spec.HealthcheckResult) error {
	var errText *string
	if result.Error != "" {
		errText = &result.Error
	}

	query := `
		INSERT INTO healthcheck_results (service_id, status, status_code, error, latency_ms, checked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, result.ServiceID, string(result.Status), result.StatusCode,
		errText, result.LatencyMs, result.CheckedAt)
	if err != nil {
		return fmt.Errorf("append healthcheck result: %w", err)
	}
	return nil
}

// History returns the most recent limit HealthcheckResults for serviceID, newest first.
func (s *SqliteStore) History(ctx context.Context, serviceID int64, limit int) ([]spec.HealthcheckResult, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []healthcheckResultRow
	query := `
		SELECT * FROM healthcheck_results
		WHERE service_id = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &rows, query, serviceID, limit); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	results := make([]spec.HealthcheckResult, 0, len(rows))
	for _, row := range rows {
		errText := ""
		if row.Error != nil {
			errText = *row.Error
		}
		results = append(results, spec.HealthcheckResult{
			ServiceID:  row.ServiceID,
			Status:     probe.Status(row.Status),
			StatusCode: row.StatusCode,
			Error:      errText,
			LatencyMs:  row.LatencyMs,
			CheckedAt:  row.CheckedAt,
		})
	}
	return results, nil
}
