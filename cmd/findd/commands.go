package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"findd/pkg/types"
)

func newFindCmd(c *cli) *cobra.Command {
	var noOpen bool
	cmd := &cobra.Command{
		Use:     "find <utterance...>",
		Short:   "Run one voice search command",
		Example: "  findd find найди папку 00 развитие на диске д",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			defer svc.Close()
			resp, err := svc.Search(cmd.Context(), types.SearchRequest{
				Utterance: strings.Join(args, " "),
				Open:      !noOpen,
			})
			if err != nil {
				return err
			}
			for _, s := range resp.Statuses {
				if s.Busy {
					continue
				}
				fmt.Fprintln(cmd.ErrOrStderr(), s.Text)
			}
			if !resp.Handled {
				return errors.New("not a search command")
			}
			if resp.Best == "" {
				return errors.New("nothing opened")
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Best)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the best match without opening it")
	return cmd
}

func newProbeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the engine answers queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			defer svc.Close()
			mgr := svc.Engine()
			ready, reason := mgr.ProbeReady(cmd.Context(), mgr.Instance())
			if ready {
				fmt.Fprintln(cmd.OutOrStdout(), "ready")
				return nil
			}
			return fmt.Errorf("not ready: %s", reason)
		},
	}
}

func newInstancesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List running engine processes as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			defer svc.Close()
			return printJSON(cmd.OutOrStdout(), types.InstancesResponse{Instances: svc.Instances(cmd.Context())})
		},
	}
}

func newEnsureCmd(c *cli) *cobra.Command {
	var (
		force   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Start or reconcile the engine until it answers queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			defer svc.Close()
			err = svc.Ensure(cmd.Context(), types.EnsureRequest{TimeoutSeconds: timeout.Seconds(), Force: force})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Restart conflicting instances when a base dir is configured")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Readiness window (0 uses engine.ensure_timeout_seconds)")
	return cmd
}

func newStopCmd(c *cli) *cobra.Command {
	var own, forceInternal bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop engine instances started by findd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			defer svc.Close()
			if !svc.Shutdown(cmd.Context(), types.ShutdownRequest{Own: own, ForceInternal: forceInternal}) {
				return errors.New("no engine instance was stopped")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&own, "own", false, "Stop the configured instance id instead of the owned ones")
	cmd.Flags().BoolVar(&forceInternal, "force-internal", false, "Also stop an engine running from the bundled _internal path")
	return cmd
}

func newBlockCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "block <seconds> [reason...]",
		Short: "Suppress engine autostart on a running server",
		Long: "Suppress engine autostart for the given number of seconds. The block lives in the\n" +
			"serving process, so the request is sent to its HTTP API at --addr.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := strconv.ParseFloat(args[0], 64)
			if err != nil || secs <= 0 {
				return fmt.Errorf("seconds must be a positive number, got %q", args[0])
			}
			req := types.BlockAutostartRequest{Seconds: secs, Reason: strings.Join(args[1:], " ")}
			if addr == "" {
				addr = c.cfg.Addr
			}
			return postJSON(cmd.Context(), addr, "/engine/block-autostart", req, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address of the running server (defaults config addr)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// splitCSV splits a comma-separated list and drops empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
