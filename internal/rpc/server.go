package rpc

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/home-focus/go-core/internal/logging"
	"github.com/danielpatrickdp/home-focus/go-core/internal/narrative"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region server

// Server implements NarrativeServer. Each request is evaluated from scratch.
type Server struct {
	arbiter   *narrative.Arbiter
	normalize signals.NormalizeConfig
	decisions *sql.DB
	logger    *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDecisionLog records every arbitration in db's decision_log table.
func WithDecisionLog(db *sql.DB) ServerOption {
	return func(s *Server) { s.decisions = db }
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a narrative server.
func NewServer(arbiter *narrative.Arbiter, normalize signals.NormalizeConfig, opts ...ServerOption) *Server {
	s := &Server{arbiter: arbiter, normalize: normalize, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arbitrate normalizes the snapshot and returns all three surfaces.
func (s *Server) Arbitrate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ArbitrateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	nctx, report := req.Snapshot.Context(s.normalize)
	resp := ArbitrateResponse{
		Surfaces:    s.arbiter.Resolve(nctx),
		ContextHash: narrative.ContextHash(nctx),
		Skipped:     report.Skipped,
	}
	if report.Skipped > 0 {
		s.logger.Debug("skipped upstream records", "count", report.Skipped, "reasons", report.Reasons)
	}

	if s.decisions != nil {
		entry, err := logging.LogDecision(s.decisions, logging.DecisionEntry{
			SessionID:     req.SessionID,
			ContextHash:   resp.ContextHash,
			State:         string(resp.Focus.State),
			Source:        string(resp.Focus.Source),
			SourceSystem:  resp.Focus.SourceSystem,
			Explanation:   string(resp.Focus.Explanation),
			PositionLabel: string(resp.Position.Label),
		})
		if err != nil {
			// the narrative is still valid without its log row
			s.logger.Warn("decision log write failed", "error", err)
		} else {
			resp.DecisionID = entry.DecisionID
		}
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Register adds s to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&NarrativeServiceDesc, s)
}

// NewGRPCServer builds a grpc.Server with request logging and s registered.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(LoggingInterceptor(s.logger)))
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// #endregion server

// #region interceptor

// LoggingInterceptor logs each unary call's method, status code and duration.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if code != codes.OK {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		return resp, err
	}
}

// #endregion interceptor
