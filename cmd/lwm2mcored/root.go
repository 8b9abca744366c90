package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

// newRootCmd builds the lwm2mcored cobra tree: bootstrap (provision DM
// credentials) and run (register and serve), one file per subcommand,
// flags bound with cobra; each subcommand body loads its config via
// viper when it runs.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lwm2mcored",
		Short: "OMA LwM2M device client",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.AddCommand(newBootstrapCmd(), newRunCmd())
	return cmd
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("lwm2mcored exited with error")
	}
}
