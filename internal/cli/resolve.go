package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"langsync/internal/domain"
	"langsync/internal/lang"
)

var resolveStyle string

var resolveCmd = &cobra.Command{
	Use:   "resolve <code>",
	Short: "Map a language code to a known language and its file code",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveStyle, "style", "", "code style: posix, posix_long, bcp, bcp_long, android")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	style, ok := domain.ParseCodeStyle(resolveStyle)
	if !ok {
		return fmt.Errorf("unknown code style %q", resolveStyle)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := loadLanguages(cfg)
	if err != nil {
		return err
	}

	catalog := lang.NewCatalog(data.Languages, data.Aliases, data.DefaultRegions)
	lng, ok := catalog.Normalize(args[0])
	if !ok {
		return fmt.Errorf("no language matches %q", args[0])
	}
	fileCode := lang.NewResolver(data.Tables()).Resolve(lng.Code, style)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", lng.Code, lng.Name, fileCode)
	return nil
}
