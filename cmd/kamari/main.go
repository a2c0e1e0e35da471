package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	service "github.com/kamari/service"
	"github.com/kamari/service/config"
	"github.com/kamari/service/logger"
)

func main() {
	cmd := newRootCommand(viper.New(), run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kamari:", err.Error())
		os.Exit(1)
	}
}

// newRootCommand builds the kamari command. --conf may also be given as
// KAMARI_CONF.
func newRootCommand(v *viper.Viper, runE func(files []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kamari",
		Short:         "Kamari task and sprint backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			var files []string
			if conf := strings.TrimSpace(v.GetString("conf")); conf != "" {
				files = strings.Split(conf, ",")
			}
			return runE(files)
		},
	}

	v.SetEnvPrefix("KAMARI")
	v.AutomaticEnv()

	cmd.Flags().String("conf", "", "comma separated config files, default ./etc/config.*")
	mustBindPFlag(v, "conf", cmd)
	return cmd
}

func mustBindPFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
		panic(err)
	}
}

func run(files []string) error {
	config.MustLoad(files...)
	config.PrintWithJSON()

	cleanup, err := logger.Init(config.C.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer cleanup()

	app, err := service.NewApp(config.C)
	if err != nil {
		logger.Errorf(nil, "init app: %s", err.Error())
		return err
	}
	if err := app.Run(); err != nil {
		logger.Errorf(nil, "app exited: %s", err.Error())
		return err
	}
	return nil
}
