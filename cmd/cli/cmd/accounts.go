package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"postplane/pkg/api"
)

var (
	linkPlatform    string
	linkAccessToken string
	linkAccountID   string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage connected platform accounts",
}

var accountsLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Connect a platform account",
	Long: `Store a platform access token so posts can be scheduled against the
account. Linking the same platform again replaces the stored token.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POSTPLANE_TOKEN environment variable")
			return
		}

		if linkPlatform == "" {
			cmd.Println("--platform is required (linkedin, twitter, facebook)")
			return
		}
		if linkAccessToken == "" {
			cmd.Println("--access-token is required")
			return
		}
		if linkAccountID == "" {
			cmd.Println("--account-id is required")
			return
		}

		client := NewPostClient(url, token)
		resp, err := client.LinkAccount(api.LinkAccountRequest{
			Platform:    linkPlatform,
			AccessToken: linkAccessToken,
			AccountID:   linkAccountID,
		})
		if err != nil {
			cmd.Printf("Failed to link account: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Linked %s account %s\n", colorGreen, colorReset, resp.Platform, resp.AccountID)
	},
}

func init() {
	accountsLinkCmd.Flags().StringVarP(&linkPlatform, "platform", "p", "", "Platform to link: linkedin, twitter, facebook (required)")
	accountsLinkCmd.Flags().StringVar(&linkAccessToken, "access-token", "", "OAuth access token for the platform (required)")
	accountsLinkCmd.Flags().StringVar(&linkAccountID, "account-id", "", "Platform account identifier (required)")

	accountsCmd.AddCommand(accountsLinkCmd)
	rootCmd.AddCommand(accountsCmd)
}
