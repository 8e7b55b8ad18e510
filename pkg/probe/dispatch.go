package probe

import (
	"context"
	"fmt"
)

// Dispatch runs the protocol probe named by spec.Method and returns its raw Result.
// HTTP/HTTPS results still need Classify applied by the caller; every other protocol's
// Result.Status is already terminal.
func Dispatch(ctx context.Context, spec Spec, deps Deps) Result {
	switch spec.Method {
	case MethodHTTP, MethodHTTPS:
		return probeHTTP(ctx, spec)
	case MethodTCP:
		return probeTCP(ctx, spec)
	case MethodUDP:
		return probeUDP(ctx, spec)
	case MethodICMP:
		return probeICMP(ctx, spec)
	case MethodDNS:
		return probeDNS(ctx, spec)
	case MethodWS, MethodWSS:
		return probeWebsocket(ctx, spec)
	case MethodGRPC:
		return probeGRPC(ctx, spec)
	case MethodSMTP:
		return probeSMTP(ctx, spec)
	case MethodFTP:
		return probeFTP(ctx, spec)
	case MethodSSH:
		return probeSSH(ctx, spec)
	case MethodRedis:
		return probeRedis(ctx, spec)
	case MethodMySQL:
		return probeMySQL(ctx, spec)
	case MethodPostgres:
		return probePostgres(ctx, spec, deps)
	case MethodMongo:
		return probeMongo(ctx, spec)
	case MethodKafka:
		return probeKafka(ctx, spec)
	default:
		return Result{Status: StatusDead, Err: fmt.Errorf("unsupported method: %q", spec.Method)}
	}
}
