package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/utils"
)

const (
	ServiceName             = "payslip.v1.ExtractionService"
	ExtractSalarySlipMethod = "/" + ServiceName + "/ExtractSalarySlip"
)

// ExtractionServiceServer extracts a salary slip from raw PDF bytes. The
// response Struct is the JSON form of pipeline.ExtractionResult.
type ExtractionServiceServer interface {
	ExtractSalarySlip(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// Extractor is the part of the slips service the gRPC server needs.
type Extractor interface {
	ExtractBytes(ctx context.Context, pdf []byte) (pipeline.ExtractionResult, error)
}

// ExtractionService_ServiceDesc is declared over well-known types so no
// generated code is needed.
var ExtractionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ExtractSalarySlip",
			Handler:    extractSalarySlipHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payslip/v1/extraction.proto",
}

func RegisterExtractionServiceServer(s grpc.ServiceRegistrar, srv ExtractionServiceServer) {
	s.RegisterService(&ExtractionService_ServiceDesc, srv)
}

func extractSalarySlipHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServiceServer).ExtractSalarySlip(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractSalarySlipMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServiceServer).ExtractSalarySlip(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionServer implements ExtractionServiceServer.
type ExtractionServer struct {
	svc    Extractor
	logger *slog.Logger
}

func NewExtractionServer(svc Extractor, logger *slog.Logger) *ExtractionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionServer{svc: svc, logger: logger}
}

func (s *ExtractionServer) ExtractSalarySlip(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	pdf := req.GetValue()
	if len(pdf) == 0 {
		return nil, common.InvalidArgumentError("pdf bytes are required")
	}
	if len(pdf) > constants.MaxUploadBytes {
		return nil, common.InvalidArgumentErrorf("pdf exceeds %d bytes", constants.MaxUploadBytes)
	}

	res, err := s.svc.ExtractBytes(ctx, pdf)
	if err != nil {
		s.logger.Warn("grpc.extract.rejected", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, common.GRPCError(err)
	}
	out, err := utils.ToPBResult(res)
	if err != nil {
		s.logger.Error("grpc.extract.encode", "error", err)
		return nil, common.InternalError("encode result")
	}
	return out, nil
}

// NewServer builds a grpc.Server carrying the extraction and health services.
func NewServer(svc Extractor, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(constants.MaxUploadBytes+1<<16),
		grpc.ChainUnaryInterceptor(requestIDInterceptor(), logInterceptor(logger)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)

	RegisterExtractionServiceServer(gs, NewExtractionServer(svc, logger))
	return gs, hs
}

func requestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, _ = common.EnsureRequestID(ctx)
		return handler(ctx, req)
	}
}

func logInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"request_id", common.RequestIDFromContext(ctx),
			"ok", err == nil,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// Client is a thin caller for ExtractionService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ExtractSalarySlip(ctx context.Context, pdf []byte, opts ...grpc.CallOption) (pipeline.ExtractionResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExtractSalarySlipMethod, wrapperspb.Bytes(pdf), out, opts...); err != nil {
		return pipeline.ExtractionResult{}, err
	}
	return utils.FromPBResult(out)
}
