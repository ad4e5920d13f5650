// Package grpcserver exposes the recruiter and candidate application flows
// over gRPC for back-office tools.
//
// It delegates all business logic to apply.Service and handles only the
// transport concerns: metadata extraction, error mapping and conversion
// between the domain model and google.protobuf.Struct messages.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/session"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "leja.board.v1.ApplicationService"

// SessionResolver turns request credentials into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token, clientID string) (*session.Session, error)
}

// Server implements ApplicationService.
type Server struct {
	svc      *apply.Service
	sessions SessionResolver
}

// NewServer constructs a gRPC Server backed by the given apply.Service.
func NewServer(svc *apply.Service, sessions SessionResolver) *Server {
	return &Server{svc: svc, sessions: sessions}
}

// Register adds the service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListOwner returns the caller's received applications narrowed by the
// optional q, status and job fields. Counts cover every application.
func (s *Server) ListOwner(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.sessionFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	q := apply.OwnerQuery{
		Text:   stringField(req, "q"),
		Status: apply.Status(stringField(req, "status")),
		JobID:  stringField(req, "job"),
	}
	all, err := s.svc.ListForOwner(ctx, sess, apply.OwnerQuery{})
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{
		"applications": apply.FilterOwner(all, q),
		"counts":       apply.CountByJob(all),
	})
}

// ListMine returns every application the caller filed.
func (s *Server) ListMine(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.sessionFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	apps, err := s.svc.ListForCandidate(ctx, sess)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{"applications": apps})
}

// SetStatus moves an application to the requested status.
func (s *Server) SetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.sessionFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	id := stringField(req, "applicationId")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId is required")
	}

	app, err := s.svc.SetStatus(ctx, sess, id, apply.Status(stringField(req, "status")))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(app)
}

// Reply stores the recruiter's answer on an application.
func (s *Server) Reply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.sessionFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	id := stringField(req, "applicationId")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId is required")
	}

	app, err := s.svc.Reply(ctx, sess, id, stringField(req, "message"))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sessionFromCtx resolves the caller from the authorization and x-client-id
// metadata.
func (s *Server) sessionFromCtx(ctx context.Context) (*session.Session, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	token := strings.TrimPrefix(first(md, "authorization"), "Bearer ")
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
	}

	sess, err := s.sessions.Resolve(ctx, token, first(md, "x-client-id"))
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	if sess == nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return sess, nil
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	switch {
	case errors.Is(err, session.ErrSignInRequired):
		return status.Error(codes.Unauthenticated, err.Error())
	case session.IsGateError(err):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, apply.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, apply.ErrPostingClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	var ve *apply.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	return status.Error(codes.Internal, "internal server error")
}

// toStruct converts v through its JSON form so the wire field names match
// the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
