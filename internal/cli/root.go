package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Goden-Gun/fault-lib/pkg/config"
)

type rootOptions struct {
	configFile string
	debug      bool
}

// NewRootCmd builds the faultctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "faultctl",
		Short:        "Inspect the error code registry and run the fault boundary service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./configs/config_<APP_ENV>.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newCodesCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile:    o.configFile,
		EnvPrefix:     "FAULT",
		AllowNoConfig: o.configFile == "",
	})
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}
