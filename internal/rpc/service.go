package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "trace.journal.v1.JournalService"

// Method names.
const (
	MethodRegister         = "Register"
	MethodLogin            = "Login"
	MethodRefreshToken     = "RefreshToken"
	MethodPing             = "Ping"
	MethodCreateEntry      = "CreateEntry"
	MethodUpdateEntry      = "UpdateEntry"
	MethodDeleteEntry      = "DeleteEntry"
	MethodGetEntry         = "GetEntry"
	MethodCreateAttachment = "CreateAttachment"
	MethodListAttachments  = "ListAttachments"
	MethodWatchEntries     = "WatchEntries"
)

// FullMethod returns the full gRPC method path for a method name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// JournalServer is the server-side API. All payloads are structpb values;
// handlers decode them with FromStruct.
type JournalServer interface {
	Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateAttachment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAttachments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	WatchEntries(req *structpb.Struct, stream JournalWatchServer) error
}

// JournalWatchServer is the send side of the WatchEntries stream.
type JournalWatchServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type journalWatchServer struct {
	grpc.ServerStream
}

func (x *journalWatchServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterJournalServer attaches the service to a gRPC server.
func RegisterJournalServer(s grpc.ServiceRegistrar, srv JournalServer) {
	s.RegisterService(&journalServiceDesc, srv)
}

func unaryHandler(method string, call func(JournalServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(JournalServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(JournalServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var journalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JournalServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodRegister, JournalServer.Register),
		unaryHandler(MethodLogin, JournalServer.Login),
		unaryHandler(MethodRefreshToken, JournalServer.RefreshToken),
		unaryHandler(MethodPing, JournalServer.Ping),
		unaryHandler(MethodCreateEntry, JournalServer.CreateEntry),
		unaryHandler(MethodUpdateEntry, JournalServer.UpdateEntry),
		unaryHandler(MethodDeleteEntry, JournalServer.DeleteEntry),
		unaryHandler(MethodGetEntry, JournalServer.GetEntry),
		unaryHandler(MethodCreateAttachment, JournalServer.CreateAttachment),
		unaryHandler(MethodListAttachments, JournalServer.ListAttachments),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: MethodWatchEntries,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(JournalServer).WatchEntries(in, &journalWatchServer{stream})
			},
			ServerStreams: true,
		},
	},
	Metadata: "internal/rpc/service.go",
}

// WatchStreamDesc is the client-side description of the watch stream.
var WatchStreamDesc = grpc.StreamDesc{
	StreamName:    MethodWatchEntries,
	ServerStreams: true,
}
