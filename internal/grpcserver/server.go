// Package grpcserver implements the ats.v1.PipelineService gRPC server.
//
// It delegates all business logic to tracker.Service and handles only the
// gRPC transport concerns: metadata extraction, error mapping and
// conversion between the domain model and google.protobuf.Struct messages.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/tracker"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "ats.v1.PipelineService"

// PipelineServer is the server API of ats.v1.PipelineService.
type PipelineServer interface {
	GetCandidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCandidates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmStage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MoveCandidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DropCandidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes ats.v1.PipelineService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PipelineServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetCandidate", PipelineServer.GetCandidate),
		unary("ListCandidates", PipelineServer.ListCandidates),
		unary("ConfirmStage", PipelineServer.ConfirmStage),
		unary("MoveCandidate", PipelineServer.MoveCandidate),
		unary("DropCandidate", PipelineServer.DropCandidate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ats/v1/pipeline.proto",
}

// FullMethod returns the RPC path of method, e.g. /ats.v1.PipelineService/GetCandidate.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary(name string, call func(PipelineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PipelineServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PipelineServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Server implements PipelineServer.
type Server struct {
	svc *tracker.Service
}

// NewServer constructs a Server backed by the given tracker.Service.
func NewServer(svc *tracker.Service) *Server {
	return &Server{svc: svc}
}

// New returns a grpc.Server with the pipeline service registered and every
// call logged.
func New(svc *tracker.Service, log *zap.Logger) *grpc.Server {
	if log == nil {
		log = zap.NewNop()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logCalls(log.Named("grpc"))))
	gs.RegisterService(&ServiceDesc, NewServer(svc))
	return gs
}

// ─── RPC implementations ─────────────────────────────────────────────────────

// GetCandidate returns the journey view: {id}.
func (s *Server) GetCandidate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	j, err := s.svc.Journey(ctx, id)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(j)
}

// ListCandidates returns the worklist: {jobId, status, q}.
func (s *Server) ListCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.svc.ListCandidates(ctx, tracker.Filter{
		JobID:  str(req, "jobId"),
		Status: str(req, "status"),
		Query:  str(req, "q"),
	})
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{"candidates": list})
}

// ConfirmStage confirms a stage form: {id, stage, form, role}.
func (s *Server) ConfirmStage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	role, err := roleFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	var form json.RawMessage
	if v, ok := req.GetFields()["form"]; ok && v.GetStructValue() != nil {
		form, err = v.GetStructValue().MarshalJSON()
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "form: %v", err)
		}
	}
	out, err := s.svc.ConfirmStage(ctx, id, str(req, "stage"), form, role)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(out)
}

// MoveCandidate moves a candidate to another job: {id, jobId, role}.
func (s *Server) MoveCandidate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	role, err := roleFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.MoveCandidate(ctx, id, str(req, "jobId"), role)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(out)
}

// DropCandidate disqualifies a candidate: {id, reason, notes, role}.
func (s *Server) DropCandidate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	role, err := roleFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Drop(ctx, id, str(req, "reason"), str(req, "notes"), role)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(out)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func str(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func required(req *structpb.Struct, key string) (string, error) {
	v := str(req, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

// roleFrom reads the caller role from the request, falling back to the
// x-user-role metadata forwarded by the gateway.
func roleFrom(ctx context.Context, req *structpb.Struct) (pipeline.Role, error) {
	raw := str(req, "role")
	if raw == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("x-user-role"); len(vals) > 0 {
				raw = vals[0]
			}
		}
	}
	role, ok := pipeline.ParseRole(raw)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "unknown role %q", raw)
	}
	return role, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, tracker.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	var ve *tracker.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	return status.Error(codes.Internal, "internal server error")
}

// toStruct converts a JSON-encodable value to a Struct using its JSON field
// names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func logCalls(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("took", time.Since(start)),
		}
		if code == codes.Internal {
			log.Error("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("rpc", fields...)
		}
		return resp, err
	}
}
