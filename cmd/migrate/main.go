// Command migrate runs the Pack 'n' Strap profile migration and template
// catalog import outside the server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/pack-n-strap/internal/adapter/storage"
	"github.com/rl1809/pack-n-strap/internal/config"
	"github.com/rl1809/pack-n-strap/internal/core/service"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/mod"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Pack 'n' Strap maintenance commands",
		SilenceUsage: true,
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles <session>...",
		Short: "Migrate legacy container ids in the given profiles",
		Long: `Rewrites legacy container template ids in each profile's inventory and
moves the children of rewritten containers into their new slots.

A profile whose children cannot all be placed is left untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProfiles,
	}
	profilesCmd.Flags().Bool("dry-run", false, "Report what would change without saving")

	importCmd := &cobra.Command{
		Use:   "import <items.json>",
		Short: "Import an items catalog into the template store",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().Bool("add-cases", false, "Add the container cases to secure containers after import")

	rootCmd.AddCommand(profilesCmd, importCmd)
	return rootCmd
}

func loadLogger(cfg config.Config) *logger.Logger {
	return logger.NewFromConfig(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	}).With("mod", mod.Name)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := loadLogger(cfg)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	templates, err := storage.OpenTemplateStore(ctx, cfg.TemplateStore, cfg.TemplateSource())
	if err != nil {
		return err
	}
	defer templates.Close()

	profiles := storage.NewRedisAdapter(rdb)
	svc := service.NewMigrationService(profiles, templates, log)

	failed := 0
	for _, sessionID := range args {
		var report service.MigrationReport
		if dryRun {
			report, err = dryRunProfile(ctx, svc, profiles, sessionID)
		} else {
			report, err = svc.MigrateProfile(ctx, sessionID)
		}
		printReport(cmd, report, err)
		if err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d profiles failed", failed, len(args))
	}
	return nil
}

func dryRunProfile(ctx context.Context, svc *service.MigrationService, profiles *storage.RedisAdapter, sessionID string) (service.MigrationReport, error) {
	inv, err := profiles.GetInventory(ctx, sessionID)
	if err != nil {
		return service.MigrationReport{SessionID: sessionID}, err
	}
	report, err := svc.Migrate(ctx, inv)
	report.SessionID = sessionID
	return report, err
}

func printReport(cmd *cobra.Command, r service.MigrationReport, err error) {
	out := cmd.OutOrStdout()
	switch {
	case err != nil:
		fmt.Fprintf(out, "%s\tFAILED\t%v\n", r.SessionID, err)
	case r.Skipped:
		fmt.Fprintf(out, "%s\tSKIPPED\tprofile not initialized\n", r.SessionID)
	case !r.Changed():
		fmt.Fprintf(out, "%s\tOK\tup to date\n", r.SessionID)
	default:
		fmt.Fprintf(out, "%s\tMIGRATED\t%d containers, %d items moved\n", r.SessionID, r.Rewritten, r.Relocated)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	addCases, _ := cmd.Flags().GetBool("add-cases")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := loadLogger(cfg)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := storage.LoadCatalog(f)
	if err != nil {
		return err
	}

	templates, err := storage.OpenTemplateStore(ctx, cfg.TemplateStore, cfg.TemplateSource())
	if err != nil {
		return err
	}
	defer templates.Close()

	n, err := storage.ImportCatalog(ctx, templates, catalog)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d templates\n", n)

	if addCases {
		updated, err := service.AddCasesToSecureContainers(ctx, templates, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %d secure containers\n", updated)
	}
	return nil
}
