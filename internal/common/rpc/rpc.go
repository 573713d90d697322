// Package rpc holds the gRPC connection helpers the concrete service
// client is wired up with: the dialer, the interceptors every connection
// must carry, and the header metadata (identity, SDK name/version, optional
// auth bearer) stamped onto each outgoing call.
package rpc

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"go.flowcore.dev/sdk/internal/common/metrics"
)

const (
	// LocalHostPort is the default host:port to dial when none is given.
	LocalHostPort = "localhost:7233"

	// DefaultServiceConfig enables round robin load balancing across the
	// addresses a DNS target resolves to.
	DefaultServiceConfig = `{"loadBalancingConfig": [{"round_robin":{}}]}`

	clientNameHeaderName    = "client-name"
	clientVersionHeaderName = "client-version"
	identityHeaderName      = "client-identity"
	authorizationHeaderName = "authorization"

	minConnectTimeout = 20 * time.Second
)

type (
	// GRPCDialerParams is the input to a GRPCDialer. RequiredInterceptors
	// must be installed by any custom dialer or metrics and headers are
	// silently lost.
	GRPCDialerParams struct {
		HostPort             string
		RequiredInterceptors []grpc.UnaryClientInterceptor
		DefaultServiceConfig string
	}

	// GRPCDialer creates the gRPC connection the service client runs over.
	GRPCDialer func(params GRPCDialerParams) (*grpc.ClientConn, error)

	// HeaderValues carries the per-call metadata stamped by the headers
	// interceptor.
	HeaderValues struct {
		ClientName    string
		ClientVersion string
		Identity      string
		AuthToken     string
	}
)

// DefaultGRPCDialer dials with insecure transport, keepalive, and the
// required interceptor chain. Replace it through client options when TLS or
// a custom balancer is needed.
func DefaultGRPCDialer(params GRPCDialerParams) (*grpc.ClientConn, error) {
	return grpc.Dial(params.HostPort,
		grpc.WithInsecure(),
		grpc.WithChainUnaryInterceptor(params.RequiredInterceptors...),
		grpc.WithDefaultServiceConfig(params.DefaultServiceConfig),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithConnectParams(grpc.ConnectParams{MinConnectTimeout: minConnectTimeout}),
	)
}

// RequiredInterceptors returns the interceptor chain every connection must
// carry: per-RPC metrics and outgoing header metadata.
func RequiredInterceptors(metricsScope tally.Scope, headers HeaderValues) []grpc.UnaryClientInterceptor {
	return []grpc.UnaryClientInterceptor{
		NewMetricsInterceptor(metricsScope),
		NewHeadersInterceptor(headers),
	}
}

// NewMetricsInterceptor records a request counter and latency per RPC
// method, plus a failure counter on error.
func NewMetricsInterceptor(scope tally.Scope) grpc.UnaryClientInterceptor {
	if scope == nil {
		scope = tally.NoopScope
	}
	tagged := metrics.NewTaggedScope(scope)
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		scope := tagged.GetTaggedScope("operation", method)
		scope.Counter(metrics.RequestCounter).Inc(1)
		sw := scope.Timer(metrics.RequestLatency).Start()
		err := invoker(ctx, method, req, reply, cc, opts...)
		sw.Stop()
		if err != nil {
			scope.Counter(metrics.RequestFailureCounter).Inc(1)
		}
		return err
	}
}

// NewHeadersInterceptor stamps client name/version, identity, and the
// optional auth bearer onto every outgoing call.
func NewHeadersInterceptor(headers HeaderValues) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		pairs := []string{
			clientNameHeaderName, headers.ClientName,
			clientVersionHeaderName, headers.ClientVersion,
		}
		if headers.Identity != "" {
			pairs = append(pairs, identityHeaderName, headers.Identity)
		}
		if headers.AuthToken != "" {
			pairs = append(pairs, authorizationHeaderName, "Bearer "+headers.AuthToken)
		}
		ctx = metadata.AppendToOutgoingContext(ctx, pairs...)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
