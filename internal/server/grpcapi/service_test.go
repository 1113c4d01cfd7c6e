package grpcapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
)

const slipText = `社員番号：A12345
2025年1月25日支給
基本給：300,000
支給合計：300,000
所得税：8,500
控除合計：59,500
差引支給額：240,500
`

type textBackend struct{}

func (textBackend) Name() string { return "stub" }

func (textBackend) Extract(context.Context, []byte) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: slipText, Method: "stub"}, nil
}

type pipelineExtractor struct{ p *pipeline.Pipeline }

func (e pipelineExtractor) ExtractBytes(ctx context.Context, pdf []byte) (pipeline.ExtractionResult, error) {
	return e.p.ExtractSalarySlip(ctx, pdf)
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(pipeline.Config{}, nil, logger, textBackend{})
	gs, _ := NewServer(pipelineExtractor{p: p}, logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestExtractSalarySlipOverGRPC(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := NewClient(dial(t)).ExtractSalarySlip(ctx, []byte("%PDF-1.7\nstub\n"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Success || res.Slip == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Slip.NetPay != 240500 || res.Slip.EmployeeID != "A12345" || res.Slip.PaymentDate != "2025-01-25" {
		t.Fatalf("slip mismatch: %+v", res.Slip)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].State != pipeline.StatePrimary {
		t.Fatalf("attempts mismatch: %+v", res.Attempts)
	}
}

func TestExtractSalarySlipInvalidArgument(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := NewClient(dial(t))

	for name, body := range map[string][]byte{
		"empty":   nil,
		"not pdf": []byte("GIF89a"),
	} {
		_, err := client.ExtractSalarySlip(ctx, body)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("%s: want InvalidArgument got %v", name, err)
		}
	}
}

func TestHealthServing(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(dial(t)).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("want SERVING got %v", resp.GetStatus())
	}
}
