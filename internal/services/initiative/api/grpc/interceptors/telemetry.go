// Package interceptors holds gRPC middleware for the initiative service.
package interceptors

import (
	"context"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/initiative/internal/platform/requestctx"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
)

// ActorInterceptor copies the caller's actor metadata into the request context.
func ActorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(requestctx.ActorMetadataKey); len(values) > 0 {
				ctx = requestctx.WithActorID(ctx, values[0])
			}
		}
		return handler(ctx, req)
	}
}

// TelemetryInterceptor logs one line per unary call with its method kind,
// status code, encounter scope and trace id.
func TelemetryInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = log.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		var traceID string
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		logger.Printf(
			"initiative: grpc %s kind=%s code=%s encounter=%q actor=%q trace=%s duration=%s",
			info.FullMethod,
			classifyMethodKind(info.FullMethod),
			code,
			extractEncounterID(req),
			requestctx.ActorIDFromContext(ctx),
			traceID,
			time.Since(started).Round(time.Microsecond),
		)
		return resp, err
	}
}

// ActorClientInterceptor stamps outgoing calls with an actor id.
func ActorClientInterceptor(actorID string) grpc.UnaryClientInterceptor {
	actorID = strings.TrimSpace(actorID)
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if actorID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, requestctx.ActorMetadataKey, actorID)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func extractEncounterID(req any) string {
	in, ok := req.(*structpb.Struct)
	if !ok || in == nil {
		return ""
	}
	value, ok := in.GetFields()["encounterId"]
	if !ok {
		return ""
	}
	return strings.TrimSpace(value.GetStringValue())
}

func classifyMethodKind(fullMethod string) string {
	switch fullMethod {
	case initiativeapi.FullMethod(initiativeapi.MethodGetEncounter),
		initiativeapi.FullMethod(initiativeapi.MethodListEncounters),
		initiativeapi.FullMethod(initiativeapi.MethodSimulateQueue),
		initiativeapi.FullMethod(initiativeapi.MethodProjectTimeline),
		initiativeapi.FullMethod(initiativeapi.MethodGetCharacter),
		initiativeapi.FullMethod(initiativeapi.MethodListCharacters):
		return "read"
	default:
		return "write"
	}
}
