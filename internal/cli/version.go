package cli

import (
	"context"
	"fmt"

	"github.com/buemura/zapx/internal/zap"
	"github.com/spf13/cobra"
)

var engineFlag bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of zapx",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "zapx version %s\n", version)
		if !engineFlag {
			return nil
		}

		client, err := zap.NewClient(zap.Options{
			BaseURL: appConfig.ZAP.URL,
			APIKey:  appConfig.ZAP.APIKey,
			Timeout: appConfig.ZAP.Timeout,
		})
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		v, err := client.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ZAP version %s at %s\n", v, client.BaseURL())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&engineFlag, "engine", false, "also query the version of the ZAP instance")
}
