package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	scheduleContent  string
	schedulePlatform string
	scheduleAt       string
	scheduleHashtags []string
	scheduleMedia    []string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a post for future publication",
	Long: `Schedule a post to be published on a connected platform at an exact
future time. Up to five image attachments are uploaded to the platform
when the post is accepted; publication happens when the scheduled time
arrives.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POSTPLANE_TOKEN environment variable")
			return
		}

		if scheduleContent == "" {
			cmd.Println("--content is required")
			return
		}
		if schedulePlatform == "" {
			cmd.Println("--platform is required (linkedin, twitter, facebook)")
			return
		}
		if _, err := time.Parse(time.RFC3339, scheduleAt); err != nil {
			cmd.Println("--at must be an RFC 3339 timestamp, e.g. 2026-01-02T15:04:05Z")
			return
		}

		client := NewPostClient(url, token)
		resp, err := client.SchedulePost(scheduleContent, schedulePlatform, scheduleAt, scheduleHashtags, scheduleMedia)
		if err != nil {
			cmd.Printf("Failed to schedule post: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Post scheduled\n", colorGreen, colorReset)
		cmd.Printf("%sPost ID:%s      %s\n", colorDim, colorReset, resp.PostID)
		cmd.Printf("%sSchedule ID:%s  %s\n", colorDim, colorReset, resp.ScheduleID)
		cmd.Printf("%sPlatform:%s     %s\n", colorDim, colorReset, resp.Platform)
		cmd.Printf("%sPublish at:%s   %s\n", colorDim, colorReset, resp.ScheduledTime.Format("Mon, 02 Jan 2006 15:04:05 MST"))
		if resp.MediaCount > 0 {
			cmd.Printf("%sAttachments:%s  %d\n", colorDim, colorReset, resp.MediaCount)
		}
	},
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleContent, "content", "c", "", "Post text (required)")
	scheduleCmd.Flags().StringVarP(&schedulePlatform, "platform", "p", "", "Target platform: linkedin, twitter, facebook (required)")
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "Publish time as RFC 3339, must be in the future (required)")
	scheduleCmd.Flags().StringSliceVar(&scheduleHashtags, "hashtags", nil, "Hashtags to append to the content")
	scheduleCmd.Flags().StringSliceVar(&scheduleMedia, "media", nil, "Image files to attach (max 5)")

	rootCmd.AddCommand(scheduleCmd)
}
