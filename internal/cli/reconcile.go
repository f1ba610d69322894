package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reconcileJSON bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <project>/<component>",
	Short: "Run one reconciliation pass over a component",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	projectSlug, componentSlug, ok := strings.Cut(args[0], "/")
	if !ok {
		return fmt.Errorf("expected <project>/<component>, got %q", args[0])
	}

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg, newLogger(cfg.Log), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.projects.GetBySlug(ctx, projectSlug)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %q not found", projectSlug)
	}
	component, err := a.components.GetBySlug(ctx, project.ID, componentSlug)
	if err != nil {
		return err
	}
	if component == nil {
		return fmt.Errorf("component %q not found in %s", componentSlug, projectSlug)
	}

	report, err := a.rec.Reconcile(ctx, component.ID)
	if err != nil {
		return fmt.Errorf("rescan: %w", err)
	}
	if reconcileJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created=%d removed=%d unchanged=%d skipped=%d conflicts=%d\n",
		len(report.Created), len(report.Removed), report.Unchanged, len(report.Skipped), len(report.Conflicts))
	return nil
}
