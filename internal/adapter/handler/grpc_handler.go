package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pack-n-strap/internal/logger"
)

// ServiceName is the health service name reported for the mod.
const ServiceName = "packnstrap.Mod"

// GRPCHandler exposes the standard gRPC health service. The mod reports
// NOT_SERVING until its database load has finished.
type GRPCHandler struct {
	health *health.Server
	log    *logger.Logger
}

func NewGRPCHandler(log *logger.Logger) *GRPCHandler {
	if log == nil {
		log = logger.Nop()
	}
	h := &GRPCHandler{health: health.NewServer(), log: log}
	h.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

func (h *GRPCHandler) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ServiceName, st)
	h.health.SetServingStatus("", st)
}

// Shutdown flips every service to NOT_SERVING ahead of GracefulStop.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}

// UnaryServerInterceptor logs each unary call with its status code.
func (h *GRPCHandler) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil {
			h.log.Errorf(err, "grpc %s code=%s took=%s", info.FullMethod, code, time.Since(start))
		} else {
			h.log.Debugf("grpc %s code=%s took=%s", info.FullMethod, code, time.Since(start))
		}
		return resp, err
	}
}
