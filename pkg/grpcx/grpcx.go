// Package grpcx renders translated failures as gRPC statuses with
// google.rpc error details, and turns such statuses back into Faults.
package grpcx

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/tracing"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

const (
	// Domain is the ErrorInfo domain set on every rendered status.
	Domain = "fault-lib"
	// RequestIDKey is the incoming metadata key read as request id.
	RequestIDKey = "x-request-id"
	// DefaultRetryDelay is advertised in RetryInfo for transient codes.
	DefaultRetryDelay = time.Second
)

// ErrorInfo metadata keys.
const (
	MetaName      = "name"
	MetaPath      = "path"
	MetaDetails   = "details"
	MetaRequestID = "requestId"
)

// Interceptor renders handler failures through a Translator.
type Interceptor struct {
	tr         *translate.Translator
	retryDelay time.Duration
}

// NewInterceptor uses a default Translator when tr is nil; a retryDelay
// <= 0 means DefaultRetryDelay.
func NewInterceptor(tr *translate.Translator, retryDelay time.Duration) *Interceptor {
	if tr == nil {
		tr = translate.New(translate.Options{})
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Interceptor{tr: tr, retryDelay: retryDelay}
}

// UnaryServerInterceptor is a shorthand for NewInterceptor(tr, 0).Unary().
func UnaryServerInterceptor(tr *translate.Translator) grpc.UnaryServerInterceptor {
	return NewInterceptor(tr, 0).Unary()
}

func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		ctx = incomingContext(ctx)
		defer func() {
			if rec := recover(); rec != nil {
				resp, err = nil, i.render(ctx, info.FullMethod, &translate.Uncaught{Err: fmt.Errorf("panic: %v", rec)})
			}
		}()
		resp, err = handler(ctx, req)
		if err != nil {
			return nil, i.render(ctx, info.FullMethod, err)
		}
		return resp, nil
	}
}

func (i *Interceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx := incomingContext(ss.Context())
		defer func() {
			if rec := recover(); rec != nil {
				err = i.render(ctx, info.FullMethod, &translate.Uncaught{Err: fmt.Errorf("panic: %v", rec)})
			}
		}()
		if err = handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx}); err != nil {
			return i.render(ctx, info.FullMethod, err)
		}
		return nil
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

func incomingContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	ctx = tracing.ExtractMetadata(ctx, md)
	if ids := md.Get(RequestIDKey); len(ids) > 0 {
		ctx = log.ContextWithRequestID(ctx, ids[0])
	}
	return ctx
}

// render passes through errors that already carry a gRPC status.
func (i *Interceptor) render(ctx context.Context, method string, err error) error {
	if _, ok := err.(interface{ GRPCStatus() *status.Status }); ok {
		return err
	}
	res := i.tr.Translate(ctx, method, err)
	return ToStatus(res, i.retryDelay).Err()
}

// ToStatus converts a translated failure into a status with ErrorInfo,
// BadRequest for field errors and RetryInfo for transient codes.
func ToStatus(res translate.Result, retryDelay time.Duration) *status.Status {
	body := res.Body.Data
	code, ok := codes.Lookup(body.ErrorCode)
	if !ok {
		code = codes.InternalServerError
	}
	st := status.New(code.GRPCCode(), body.Message)

	info := &errdetails.ErrorInfo{
		Reason: code.Code,
		Domain: Domain,
		Metadata: map[string]string{
			MetaName: code.Name,
			MetaPath: body.Path,
		},
	}
	if body.Details != "" {
		info.Metadata[MetaDetails] = body.Details
	}
	if id, ok := body.Metadata[translate.MetadataRequestID].(string); ok {
		info.Metadata[MetaRequestID] = id
	}
	details := []protoadapt.MessageV1{info}

	if len(body.FieldErrors) > 0 {
		br := &errdetails.BadRequest{}
		for _, fe := range body.FieldErrors {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       fe.Field,
				Description: fe.Message,
			})
		}
		details = append(details, br)
	}
	if code.IsTransient() && retryDelay > 0 {
		details = append(details, &errdetails.RetryInfo{RetryDelay: durationpb.New(retryDelay)})
	}

	withDetails, err := st.WithDetails(details...)
	if err != nil {
		return st
	}
	return withDetails
}

// FromStatus rebuilds a Fault from a status error produced by this
// package. Other status errors map through codes.FromGRPCCode. Errors
// without a status are returned unchanged; an OK status yields nil.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() == grpccodes.OK {
		return nil
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		code, known := codes.Lookup(info.GetReason())
		if !known {
			break
		}
		f := fault.WrapWithDetails(code, info.GetMetadata()[MetaDetails], err)
		if id := info.GetMetadata()[MetaRequestID]; id != "" {
			f = f.WithMetadata(MetaRequestID, id)
		}
		return f
	}
	return fault.WrapWithDetails(codes.FromGRPCCode(st.Code()), st.Message(), err)
}

// RetryDelay returns the RetryInfo delay carried by err, if any.
func RetryDelay(err error) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, d := range st.Details() {
		if ri, ok := d.(*errdetails.RetryInfo); ok && ri.GetRetryDelay() != nil {
			return ri.GetRetryDelay().AsDuration(), true
		}
	}
	return 0, false
}
