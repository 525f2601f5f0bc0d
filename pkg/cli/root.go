// Package cli implements the hwalias command line.
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/config"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app holds the state shared by all commands of one process. The shell
// rebuilds the command tree for every line but keeps the same app, so the
// store is opened once.
type app struct {
	configFile  string
	storagePath string
	offset      int64
	capacity    int

	host        *daemon.Host
	interactive bool
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	a := &app{}
	return a.execute(ctx, newRootCommand(a))
}

// execute runs root and then releases the store, which unlocks the image
// for the daemon or the next command.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

func (a *app) close() {
	if a.host == nil {
		return
	}
	if err := a.host.Close(); err != nil {
		glog.Warningf("Failed to release alias store: %v", err)
	}
	a.host = nil
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "hwalias",
		Short: "Persisted aliases for hardware addresses",
		Long: `hwalias keeps a small table of short names for 6-byte hardware
addresses in a fixed block of a non-volatile storage image. Only one
process opens the image at a time: while "hwalias serve" runs, other
commands fail to open the store.

The table always starts with the broadcast address. A missing or corrupt
block is replaced by that default table on first use.`,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (YAML, JSON or JSONC)")
	flags.StringVar(&a.storagePath, "storage", config.DefaultStoragePath, "storage image path")
	flags.Int64Var(&a.offset, "offset", 0, "byte offset of the alias block in the image")
	flags.IntVar(&a.capacity, "capacity", alias.MaxAliasNum, "maximum number of aliases")
	flags.AddGoFlagSet(flag.CommandLine)
	root.SetGlobalNormalizationFunc(wordSepNormalizeFunc)

	root.AddCommand(
		newResetCommand(a),
		newAddCommand(a),
		newRemoveCommand(a),
		newResolveCommand(a),
		newNameCommand(a),
		newNameAtCommand(a),
		newFindCommand(a),
		newImportLocalCommand(a),
	)
	if !a.interactive {
		root.AddCommand(newServeCommand(a), newShellCommand(a))
	}
	return root
}

// wordSepNormalizeFunc accepts glog's underscore flag names with dashes.
func wordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// config loads the config file, if any, and applies explicitly set flags
// on top of it.
func (a *app) config(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if a.configFile != "" {
		loaded, err := config.Load(a.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("storage") {
		cfg.Storage.Path = a.storagePath
	}
	if flags.Changed("offset") {
		cfg.Storage.Offset = a.offset
	}
	if flags.Changed("capacity") {
		cfg.Capacity = a.capacity
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open returns the host of the alias store, opening it on first use.
func (a *app) open(cmd *cobra.Command) (*daemon.Host, error) {
	if a.host != nil {
		return a.host, nil
	}
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	store, status, err := daemon.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if status == alias.StatusReset {
		fmt.Fprintf(cmd.ErrOrStderr(), "No valid alias table in %s, initialized defaults\n", cfg.Storage.Path)
	}
	a.host = daemon.NewHost(store)
	return a.host, nil
}
