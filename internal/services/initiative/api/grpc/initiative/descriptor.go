// Package initiative exposes the initiative.v1.InitiativeService gRPC API.
//
// Payloads travel as google.protobuf.Struct values that mirror the JSON wire
// types in this package, so the service needs no generated stubs.
package initiative

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "initiative.v1.InitiativeService"

// Method names.
const (
	MethodCreateEncounter     = "CreateEncounter"
	MethodGetEncounter        = "GetEncounter"
	MethodListEncounters      = "ListEncounters"
	MethodDeleteEncounter     = "DeleteEncounter"
	MethodApplyCommand        = "ApplyCommand"
	MethodSimulateQueue       = "SimulateQueue"
	MethodProjectTimeline     = "ProjectTimeline"
	MethodPutCharacter        = "PutCharacter"
	MethodGetCharacter        = "GetCharacter"
	MethodListCharacters      = "ListCharacters"
	MethodIssueSpectatorGrant = "IssueSpectatorGrant"
)

// FullMethod returns the gRPC path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// InitiativeServiceServer is the server API for InitiativeService.
type InitiativeServiceServer interface {
	CreateEncounter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEncounter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEncounters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEncounter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SimulateQueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProjectTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutCharacter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCharacter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCharacters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueSpectatorGrant(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(InitiativeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(InitiativeServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*structpb.Struct))
		})
	}
}

// ServiceDesc is the grpc.ServiceDesc for InitiativeService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InitiativeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodCreateEncounter, Handler: unaryHandler(MethodCreateEncounter, InitiativeServiceServer.CreateEncounter)},
		{MethodName: MethodGetEncounter, Handler: unaryHandler(MethodGetEncounter, InitiativeServiceServer.GetEncounter)},
		{MethodName: MethodListEncounters, Handler: unaryHandler(MethodListEncounters, InitiativeServiceServer.ListEncounters)},
		{MethodName: MethodDeleteEncounter, Handler: unaryHandler(MethodDeleteEncounter, InitiativeServiceServer.DeleteEncounter)},
		{MethodName: MethodApplyCommand, Handler: unaryHandler(MethodApplyCommand, InitiativeServiceServer.ApplyCommand)},
		{MethodName: MethodSimulateQueue, Handler: unaryHandler(MethodSimulateQueue, InitiativeServiceServer.SimulateQueue)},
		{MethodName: MethodProjectTimeline, Handler: unaryHandler(MethodProjectTimeline, InitiativeServiceServer.ProjectTimeline)},
		{MethodName: MethodPutCharacter, Handler: unaryHandler(MethodPutCharacter, InitiativeServiceServer.PutCharacter)},
		{MethodName: MethodGetCharacter, Handler: unaryHandler(MethodGetCharacter, InitiativeServiceServer.GetCharacter)},
		{MethodName: MethodListCharacters, Handler: unaryHandler(MethodListCharacters, InitiativeServiceServer.ListCharacters)},
		{MethodName: MethodIssueSpectatorGrant, Handler: unaryHandler(MethodIssueSpectatorGrant, InitiativeServiceServer.IssueSpectatorGrant)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "initiative/v1/initiative.proto",
}

// RegisterInitiativeServiceServer registers srv on s.
func RegisterInitiativeServiceServer(s grpc.ServiceRegistrar, srv InitiativeServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
