package cli

import (
	"fmt"
	"time"

	"github.com/buemura/zapx/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	targetFlag      string
	outputFlag      string
	verboseFlag     bool
	configDirFlag   string
	zapURLFlag      string
	apiKeyFlag      string
	timeoutFlag     time.Duration
	maxDurationFlag time.Duration
)

// appConfig holds the loaded configuration, available after PersistentPreRunE.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "zapx",
	Short: "zapx: drive an OWASP ZAP instance from declarative YAML",
	Long: `zapx configures a running OWASP ZAP instance from a directory of YAML
files (contexts, users, spider and active scanner settings), starts the
spiders and the active scanner, waits for them and reports the alerts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		config.ApplyFlags(cfg, cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Sync config values back to flag variables so every command sees
		// config-file and env-var defaults transparently.
		targetFlag = cfg.DefaultTarget
		outputFlag = cfg.OutputFormat
		configDirFlag = cfg.ConfigDir
		zapURLFlag = cfg.ZAP.URL
		apiKeyFlag = cfg.ZAP.APIKey
		timeoutFlag = cfg.ZAP.Timeout
		maxDurationFlag = cfg.MaxDuration

		appConfig = cfg
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaults := config.Defaults()

	rootCmd.PersistentFlags().StringVarP(&targetFlag, "target", "t", "", "target URL handed to ZAP")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", defaults.OutputFormat, "output format: table, json, yaml, markdown, html")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "directory of scan configuration YAML files")
	rootCmd.PersistentFlags().StringVar(&zapURLFlag, "zap-url", defaults.ZAP.URL, "base URL of the ZAP API")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "ZAP API key")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", defaults.ZAP.Timeout, "timeout of a single ZAP API call")
	rootCmd.PersistentFlags().DurationVar(&maxDurationFlag, "max-duration", 0, "abort the run after this long (0: no limit)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(spiderCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
