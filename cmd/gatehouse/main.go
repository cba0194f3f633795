package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/gatehouse/internal/gatehouse/conf"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

// errDenied makes `check` exit non-zero without printing an error.
var errDenied = errors.New("permission denied")

var rootCmd = &cobra.Command{
	Use:           "gatehouse",
	Short:         "gatehouse is a role-based access control service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  serve,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a permission code for a user against the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, _ := cmd.Flags().GetString("user")
		code, _ := cmd.Flags().GetString("code")

		cfg, _, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		tools, cleanup, err := initTools(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := tools.Check(cmd.Context(), userId, code)
		if err != nil {
			return err
		}
		b, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		if !report.Allowed {
			return errDenied
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables and seed the permission catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		tools, cleanup, err := initTools(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return tools.Migrate(cmd.Context())
	},
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	app, cleanup, err := initApp(cfg, loader)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Infow("starting gatehouse", "version", version.Version, "config", loader.Path())
	return app.Run(cmd.Context())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.yaml", "config file path (yaml, toml or json)")

	checkCmd.Flags().String("user", "", "user id")
	checkCmd.Flags().String("code", "", "permission code, e.g. users.view")
	_ = checkCmd.MarkFlagRequired("user")
	_ = checkCmd.MarkFlagRequired("code")

	rootCmd.AddCommand(serveCmd, checkCmd, migrateCmd, version.VersionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errDenied) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
