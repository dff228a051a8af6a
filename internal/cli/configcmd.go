package cli

import (
	"errors"
	"fmt"

	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var dumpFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the scan configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the scan configuration directory and summarize it",
	Long: `Loads and merges every YAML file of --config-dir, then lists the contexts,
spider sections and scanner sections it defines. --dump prints the merged
configuration with passwords redacted.`,
	RunE: runConfigCheck,
}

func init() {
	configCheckCmd.Flags().BoolVar(&dumpFlag, "dump", false, "print the merged configuration")
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	if configDirFlag == "" {
		return errors.New("--config-dir is required")
	}

	cfg, err := zapconfig.Load(configDirFlag)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if dumpFlag {
		return cfg.Dump(w)
	}

	fmt.Fprintf(w, "%s %s (%d files)\n", color.GreenString("OK"), cfg.Dir(), len(cfg.Files()))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Name", "Context", "User", "URL"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")

	for _, c := range cfg.Contexts() {
		table.Append([]string{"context", c.Name, "", fmt.Sprintf("%d users", len(c.Users)), c.URL})
	}
	for _, s := range cfg.Spiders() {
		kind := "spider"
		if s.Ajax {
			kind = "ajax spider"
		}
		table.Append([]string{kind, s.Name, s.Context, s.User, s.URL})
	}
	for _, a := range cfg.Scanners() {
		table.Append([]string{"scanner", a.Name, a.Context, a.User, a.URL})
	}
	table.Render()

	for _, warning := range references(cfg) {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("WARN"), warning)
	}
	return nil
}

// references reports sections whose context or user names do not resolve.
func references(cfg *zapconfig.Configuration) []string {
	var out []string
	check := func(kind, name, contextName, userName string) {
		if contextName == "" {
			if userName != "" {
				out = append(out, fmt.Sprintf("%s %q: user %q is ignored without a context", kind, name, userName))
			}
			return
		}
		c, err := cfg.Contexts().ByName(contextName)
		if err != nil {
			out = append(out, fmt.Sprintf("%s %q: %v", kind, name, err))
			return
		}
		if userName == "" {
			return
		}
		if _, err := c.UserByName(userName); err != nil {
			out = append(out, fmt.Sprintf("%s %q: %v", kind, name, err))
		}
	}
	for _, s := range cfg.Spiders() {
		check("spider", s.Name, s.Context, s.User)
	}
	for _, a := range cfg.Scanners() {
		check("scanner", a.Name, a.Context, a.User)
	}
	return out
}
