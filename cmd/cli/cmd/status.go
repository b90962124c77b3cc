package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [schedule_id]",
	Short: "Get status of a scheduled post",
	Long:  `Retrieve detailed status for a schedule, including its current state (pending, claimed, completed, failed), attempt count, and timestamps.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scheduleID := args[0]

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POSTPLANE_TOKEN environment variable")
			return
		}

		client := NewPostClient(url, token)
		schedule, err := client.GetSchedule(scheduleID)
		if err != nil {
			cmd.Printf("Failed to fetch schedule: %v\n", err)
			return
		}

		icon := statusIcon(schedule.Status)
		cmd.Printf("%s %sSchedule Details%s\n", icon, colorBold, colorReset)
		cmd.Println("──────────────────────────────")

		cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, schedule.ID)
		cmd.Printf("%sPost:%s        %s\n", colorDim, colorReset, schedule.PostID)
		cmd.Printf("%sPlatform:%s    %s\n", colorDim, colorReset, schedule.Platform)
		cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(schedule.Status))
		cmd.Printf("%sAttempt:%s     %d\n", colorDim, colorReset, schedule.Attempt)

		if schedule.Error != nil {
			cmd.Printf("%sError:%s       %s%s%s\n", colorDim, colorReset, colorRed, *schedule.Error, colorReset)
		}

		cmd.Printf("%sScheduled:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(&schedule.ScheduledTime))
		cmd.Printf("%sExecuted:%s    %s\n", colorDim, colorReset, formatTimeWithRelative(schedule.ExecutedAt))
	},
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "completed":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "claimed":
		return colorYellow + "⏳" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "completed":
		return icon + " " + colorGreen + status + colorReset
	case "failed":
		return icon + " " + colorRed + status + colorReset
	case "claimed":
		return icon + " " + colorYellow + status + colorReset
	case "pending":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)
	suffix := " ago"
	if duration < 0 {
		duration = -duration
		suffix = " from now"
	}

	if duration < time.Minute {
		return fmt.Sprintf("%ds%s", int(duration.Seconds()), suffix)
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm%s", int(duration.Minutes()), suffix)
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh%s", int(duration.Hours()), suffix)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day" + suffix
	}
	return fmt.Sprintf("%d days%s", days, suffix)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
