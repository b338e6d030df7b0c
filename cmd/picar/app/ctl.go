package app

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/picar/internal/agent/server/grpc"
	"github.com/autopeer-io/picar/internal/car"
	grpcmw "github.com/autopeer-io/picar/internal/pkg/middleware/grpc"
)

type ctlOptions struct {
	server  string
	timeout time.Duration
}

func (o *ctlOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.server, "server", "s", "127.0.0.1:8091", "Address of the picar gRPC API.")
	cmd.Flags().DurationVar(&o.timeout, "timeout", grpcmw.DefaultRPCTimeout, "Timeout for a single call.")
}

func (o *ctlOptions) dial() (*grpc.Client, error) {
	return grpc.Dial(o.server, o.timeout)
}

func newStatusCommand() *cobra.Command {
	o := &ctlOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status and environment readings of a running car",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			snap, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	o.addFlags(cmd)
	return cmd
}

func newDoCommand() *cobra.Command {
	o := &ctlOptions{}
	cmd := &cobra.Command{
		Use:       "do ACTION",
		Short:     "Run a motion action on a running car",
		Example:   "  picar do forward\n  picar do turnleft && sleep 1 && picar do turnstop",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{car.ActionStop, car.ActionForward, car.ActionBackward, car.ActionTurnLeft, car.ActionTurnRight, car.ActionTurnStop},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.DoAction(cmd.Context(), args[0]); err != nil {
				return err
			}
			snap, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	o.addFlags(cmd)
	return cmd
}

func newWatchCommand() *cobra.Command {
	o := &ctlOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream status changes of a running car",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			table := uitable.New()
			table.AddRow("TIME", "STATUS", "LABEL", "HUMIDITY", "TEMPERATURE")
			fmt.Fprintln(out, table)
			return c.Watch(ctx, func(s car.Snapshot) error {
				table := uitable.New()
				table.AddRow(time.Now().Format(time.TimeOnly), s.Status, s.StatusText,
					fmt.Sprintf("%.1f%%", s.Humidity), fmt.Sprintf("%.1f°C", s.Temperature))
				_, err := fmt.Fprintln(out, table)
				return err
			})
		},
	}
	o.addFlags(cmd)
	return cmd
}

func printSnapshot(w io.Writer, s car.Snapshot) {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("STATUS:", s.Status)
	table.AddRow("LABEL:", s.StatusText)
	table.AddRow("HUMIDITY:", fmt.Sprintf("%.1f%%", s.Humidity))
	table.AddRow("TEMPERATURE:", fmt.Sprintf("%.1f°C", s.Temperature))
	fmt.Fprintln(w, table)
}
