package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	grpcserver "github.com/autopeer-io/dispatch/internal/dispatch/server/grpc"
	grpcmw "github.com/autopeer-io/dispatch/internal/pkg/middleware/grpc"
)

func newHealthCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether a dispatch agent is streaming its room",
		Long: `Query the gRPC health service of a dispatch agent at --grpc.addr. The
command fails unless the roster stream is connected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(opts.GrpcOptions.Addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithUnaryInterceptor(grpcmw.UnaryTimeoutInterceptor(opts.GrpcOptions.Timeout)),
			)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", opts.GrpcOptions.Addr, err)
			}
			defer conn.Close()

			return checkHealth(cmd.Context(), cmd.OutOrStdout(), conn)
		},
	}
}

func checkHealth(ctx context.Context, w io.Writer, cc grpc.ClientConnInterface) error {
	resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintf(w, "%s: %s\n", grpcserver.ServiceName, resp.GetStatus())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", grpcserver.ServiceName, resp.GetStatus())
	}
	return nil
}
