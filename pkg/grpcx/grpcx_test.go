package grpcx

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

type regionCheck struct {
	Service string `validate:"required"`
	Region  string `validate:"oneof=eu us"`
}

type faultyHealth struct {
	healthpb.UnimplementedHealthServer
}

func (faultyHealth) Check(_ context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "ok":
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	case "duplicate":
		return nil, fault.WithDetails(codes.DuplicateEntry, "sku-1")
	case "upstream":
		return nil, fault.New(codes.ExternalServiceUnavailable)
	case "invalid":
		return nil, validator.New().Struct(regionCheck{Region: "mars"})
	case "status":
		return nil, status.Error(grpccodes.Aborted, "already a status")
	case "panic":
		panic("index out of range in private code")
	}
	return nil, errors.New("db password leaked")
}

func dial(t *testing.T) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	tr := translate.New(translate.Options{Sink: diagnostics.Discard})
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(NewInterceptor(tr, 2*time.Second).Unary()),
	)
	healthpb.RegisterHealthServer(srv, faultyHealth{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func errorInfo(t *testing.T, st *status.Status) *errdetails.ErrorInfo {
	t.Helper()
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info
		}
	}
	t.Fatalf("no ErrorInfo in %v", st.Details())
	return nil
}

func TestUnaryInterceptor(t *testing.T) {
	client := dial(t)

	tests := []struct {
		service  string
		wantCode grpccodes.Code
		wantErr  codes.ErrorCode
		wantMsg  string
	}{
		{service: "duplicate", wantCode: grpccodes.AlreadyExists, wantErr: codes.DuplicateEntry, wantMsg: "Duplicate entry found"},
		{service: "upstream", wantCode: grpccodes.Unavailable, wantErr: codes.ExternalServiceUnavailable, wantMsg: "External service unavailable"},
		{service: "invalid", wantCode: grpccodes.InvalidArgument, wantErr: codes.ValidationError, wantMsg: translate.MsgValidationFailed},
		{service: "leak", wantCode: grpccodes.Internal, wantErr: codes.InternalServerError, wantMsg: translate.MsgUnexpected},
		{service: "panic", wantCode: grpccodes.Internal, wantErr: codes.InternalServerError, wantMsg: translate.MsgUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: tt.service})
			st, ok := status.FromError(err)
			require.True(t, ok)
			require.Equal(t, tt.wantCode, st.Code())
			require.Equal(t, tt.wantMsg, st.Message())

			info := errorInfo(t, st)
			require.Equal(t, tt.wantErr.Code, info.GetReason())
			require.Equal(t, Domain, info.GetDomain())
			require.Equal(t, "/grpc.health.v1.Health/Check", info.GetMetadata()[MetaPath])
			require.NotContains(t, st.String(), "password")
			require.NotContains(t, st.String(), "private code")
		})
	}
}

func TestUnaryInterceptor_Details(t *testing.T) {
	client := dial(t)

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDKey, "rid-1")
	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "invalid"})
	st := status.Convert(err)

	var br *errdetails.BadRequest
	for _, d := range st.Details() {
		if v, ok := d.(*errdetails.BadRequest); ok {
			br = v
		}
	}
	require.NotNil(t, br)
	require.Len(t, br.GetFieldViolations(), 2)
	require.Equal(t, "rid-1", errorInfo(t, st).GetMetadata()[MetaRequestID])

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "upstream"})
	delay, ok := RetryDelay(err)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, delay)

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "duplicate"})
	_, ok = RetryDelay(err)
	require.False(t, ok)
	require.Equal(t, "sku-1", errorInfo(t, status.Convert(err)).GetMetadata()[MetaDetails])
}

func TestUnaryInterceptor_PassesThroughStatus(t *testing.T) {
	client := dial(t)
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "status"})
	st := status.Convert(err)
	require.Equal(t, grpccodes.Aborted, st.Code())
	require.Equal(t, "already a status", st.Message())
	require.Empty(t, st.Details())

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "ok"})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestFromStatus(t *testing.T) {
	client := dial(t)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "duplicate"})
	rebuilt := FromStatus(err)
	f, ok := fault.As(rebuilt)
	require.True(t, ok)
	require.Equal(t, codes.DuplicateEntry, f.Code())
	require.Equal(t, "sku-1", f.Details())

	foreign := FromStatus(status.Error(grpccodes.Unavailable, "dns failure"))
	require.True(t, fault.Is(foreign, codes.ExternalServiceUnavailable))

	plain := errors.New("not a status")
	require.Same(t, plain, FromStatus(plain))
	require.NoError(t, FromStatus(nil))
}
