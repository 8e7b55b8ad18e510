// Package probe implements the protocol probe library and status classifier.
package probe

import "time"

// Method identifies which protocol probe to run for a ServiceSpec.
type Method string

const (
	MethodHTTP     Method = "http"
	MethodHTTPS    Method = "https"
	MethodTCP      Method = "tcp"
	MethodUDP      Method = "udp"
	MethodICMP     Method = "icmp"
	MethodDNS      Method = "dns"
	MethodWS       Method = "ws"
	MethodWSS      Method = "wss"
	MethodGRPC     Method = "grpc"
	MethodSMTP     Method = "smtp"
	MethodFTP      Method = "ftp"
	MethodSSH      Method = "ssh"
	MethodRedis    Method = "redis"
	MethodMySQL    Method = "mysql"
	MethodPostgres Method = "postgres"
	MethodMongo    Method = "mongo"
	MethodKafka    Method = "kafka"
)

// Status is the closed sum of service health states.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusAlive    Status = "alive"
	StatusDead     Status = "dead"
	StatusDegraded Status = "degraded"
	StatusChecking Status = "checking"
)

// Spec is the probe recipe for one service.
type Spec struct {
	ServiceID          int64
	Host               string
	Port               int
	Method             Method
	PollingIntervalSec int
	TimeoutSec         int

	ExpectedStatus  int
	StatusMapping   map[string]string
	HTTPMethod      string
	Headers         map[string]string
	Body            string
	SSLVerify       bool
	FollowRedirects bool
	HealthcheckPath string

	TCPSendData   string
	TCPExpectData string

	UDPSendData   string
	UDPExpectData string

	ICMPPacketCount int

	DNSQueryType      string
	DNSExpectedResult string

	KafkaTopic    string
	KafkaClientID string

	FrontendHostOverride string

	LastCheckedAt *time.Time
}

// Result is the outcome of one protocol probe invocation.
type Result struct {
	Status     Status
	StatusCode *int
	Err        error
}

// Deps bundles engine-wide configuration a probe may need beyond the per-service Spec.
// PostgreSQL is the only protocol that draws connection parameters from process-wide
// configuration rather than the ServiceSpec itself.
type Deps struct {
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

