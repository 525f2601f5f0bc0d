package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/daemon"
	"github.com/spf13/cobra"
)

var errSelector = errors.New("exactly one of --index, --addr or --name is required")

func newResetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the table with the default broadcast entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := host.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset alias table (%d/%d entries)\n", host.Len(), host.Cap())
			return nil
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <address> <name>",
		Short: "Add an alias",
		Long: fmt.Sprintf(`Add an alias for a hardware address. Names longer than %d bytes are
truncated. Both the address and the name must be unused.`, alias.MaxAliasLen),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := alias.ParseAddress(args[0])
			if err != nil {
				return err
			}
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := host.Insert(addr.Net(), args[1]); err != nil {
				return err
			}
			i, _ := host.FindByAddress(addr.Net())
			name, _ := host.NameAt(i)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s %s\n", i, addr, name)
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	var (
		index int
		addr  string
		name  string
	)
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an alias by index, address or name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set := 0
			for _, f := range []string{"index", "addr", "name"} {
				if cmd.Flags().Changed(f) {
					set++
				}
			}
			if set != 1 {
				return errSelector
			}

			var hwAddr alias.HardwareAddr
			if cmd.Flags().Changed("addr") {
				var err error
				if hwAddr, err = alias.ParseAddress(addr); err != nil {
					return err
				}
			}
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			switch {
			case cmd.Flags().Changed("index"):
				err = host.RemoveAt(index)
			case cmd.Flags().Changed("addr"):
				err = host.RemoveByAddress(hwAddr.Net())
			default:
				err = host.RemoveByName(name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed (%d/%d entries)\n", host.Len(), host.Cap())
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "table index")
	cmd.Flags().StringVar(&addr, "addr", "", "hardware address")
	cmd.Flags().StringVar(&name, "name", "", "alias name")
	return cmd
}

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the hardware address of an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			addr, ok := host.ResolveAddress(args[0])
			if !ok {
				return fmt.Errorf("%w: name %q", alias.ErrNotFound, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func newNameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name <address>",
		Short: "Print the alias of an address, or the address itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := alias.ParseAddress(args[0])
			if err != nil {
				return err
			}
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), host.DisplayName(addr.Net()))
			return nil
		},
	}
}

func newNameAtCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name-at <index>",
		Short: "Print the alias stored at an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			name, ok := host.NameAt(index)
			if !ok {
				return fmt.Errorf("%w: index %d not in [0, %d)", alias.ErrNotFound, index, host.Len())
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func newFindCommand(a *app) *cobra.Command {
	var addr, name string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the index of an alias by address or name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			byAddr, byName := cmd.Flags().Changed("addr"), cmd.Flags().Changed("name")
			if byAddr == byName {
				return errors.New("exactly one of --addr or --name is required")
			}
			var hwAddr alias.HardwareAddr
			if byAddr {
				var err error
				if hwAddr, err = alias.ParseAddress(addr); err != nil {
					return err
				}
			}
			host, err := a.open(cmd)
			if err != nil {
				return err
			}

			var (
				i  int
				ok bool
			)
			if byAddr {
				i, ok = host.FindByAddress(hwAddr.Net())
			} else {
				i, ok = host.FindByName(name)
			}
			if !ok {
				return alias.ErrNotFound
			}
			fmt.Fprintln(cmd.OutOrStdout(), i)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "hardware address")
	cmd.Flags().StringVar(&name, "name", "", "alias name")
	return cmd
}

func newImportLocalCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-local",
		Short: "Alias every local interface address that has no alias yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.open(cmd)
			if err != nil {
				return err
			}
			added, err := daemon.NewSyncer(host, 0).SyncOnce()
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d aliases (%d/%d entries)\n", added, host.Len(), host.Cap())
			return err
		},
	}
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alias daemon",
		Long: `Run the alias daemon: keep local interfaces aliased and export store
metrics over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return daemon.Run(ctx, cfg)
		},
	}
}
