package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// applyConfigDefaults backfills unchanged flags from config-file keys
// under "scan." so ~/.sentra.yaml can set per-operator defaults without
// overriding explicit flags.
func applyConfigDefaults(cmd *cobra.Command) {
	visit := func(f *pflag.Flag) {
		key := "scan." + f.Name
		if !f.Changed && viper.IsSet(key) {
			_ = f.Value.Set(viper.GetString(key))
		}
	}
	cmd.Flags().VisitAll(visit)
	cmd.InheritedFlags().VisitAll(visit)
}
