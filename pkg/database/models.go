package database

import (
	"encoding/json"
	"time"
)

// serviceSpecRow is the sqlx scan target for the service_specs table. Complex fields
// (headers, statusMapping) are stored as JSON TEXT and marshaled via the helper methods below.
type serviceSpecRow struct {
	ServiceID            int64     `db:"service_id"`
	Host                 string    `db:"host"`
	Port                 int       `db:"port"`
	Method               string    `db:"method"`
	PollingIntervalSec   int       `db:"polling_interval_sec"`
	TimeoutSec           int       `db:"timeout_sec"`
	ExpectedStatus       int       `db:"expected_status"`
	StatusMapping        string    `db:"status_mapping"`
	HTTPMethod           string    `db:"http_method"`
	Headers              string    `db:"headers"`
	Body                 string    `db:"body"`
	SSLVerify            bool      `db:"ssl_verify"`
	FollowRedirects      bool      `db:"follow_redirects"`
	HealthcheckPath      string    `db:"healthcheck_path"`
	TCPSendData          string    `db:"tcp_send_data"`
	TCPExpectData        string    `db:"tcp_expect_data"`
	UDPSendData          string    `db:"udp_send_data"`
	UDPExpectData        string    `db:"udp_expect_data"`
	ICMPPacketCount      int       `db:"icmp_packet_count"`
	DNSQueryType         string    `db:"dns_query_type"`
	DNSExpectedResult    string    `db:"dns_expected_result"`
	KafkaTopic           string    `db:"kafka_topic"`
	KafkaClientID        string    `db:"kafka_client_id"`
	FrontendHostOverride string    `db:"frontend_host_override"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`

	// LastCheckedAt is populated by ListAll's join against service_latest; it has no column of
	// its own in service_specs.
	LastCheckedAt *time.Time `db:"last_checked_at"`
}

func (r *serviceSpecRow) marshalMap(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

func (r *serviceSpecRow) unmarshalMap(data string) (map[string]string, error) {
	m := make(map[string]string)
	if data == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// serviceLatestRow is the sqlx scan target for the service_latest table.
type serviceLatestRow struct {
	ServiceID     int64      `db:"service_id"`
	CurrentStatus string     `db:"current_status"`
	LastCheckedAt *time.Time `db:"last_checked_at"`
}

// healthcheckResultRow is the sqlx scan target for the healthcheck_results table.
type healthcheckResultRow struct {
	ID         int64     `db:"id"`
	ServiceID  int64     `db:"service_id"`
	Status     string    `db:"status"`
	StatusCode *int      `db:"status_code"`
	Error      *string   `db:"error"`
	LatencyMs  int64     `db:"latency_ms"`
	CheckedAt  time.Time `db:"checked_at"`
}
