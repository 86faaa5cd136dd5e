package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/publisher"
)

var (
	publishBroker   string
	publishSite     string
	publishPrefix   string
	publishClientID string
	publishUsername string
	publishPassword string
)

var publishCmd = &cobra.Command{
	Use:   "publish <readings.csv>",
	Short: "Publish monthly summaries to MQTT",
	Long:  `Analyzes the readings and publishes every month's usage and bill as a retained MQTT message.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishBroker, "broker", "", "MQTT broker host:port")
	publishCmd.Flags().StringVar(&publishSite, "site", "", "site ID used in the topic")
	publishCmd.Flags().StringVar(&publishPrefix, "topic-prefix", "qldtariffs", "prefix for published topics")
	publishCmd.Flags().StringVar(&publishClientID, "client-id", "tariffcalc", "MQTT client ID")
	publishCmd.Flags().StringVar(&publishUsername, "username", "", "MQTT username")
	publishCmd.Flags().StringVar(&publishPassword, "password", "", "MQTT password")
	_ = publishCmd.MarkFlagRequired("broker")
	_ = publishCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := log.WithAttrs(cmd.Context(), slog.String("siteID", publishSite))

	report, err := analyze(ctx, args[0])
	if err != nil {
		return err
	}

	pub, err := publisher.New(publisher.Config{
		Broker:      publishBroker,
		ClientID:    publishClientID,
		Username:    publishUsername,
		Password:    publishPassword,
		TopicPrefix: publishPrefix,
	})
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	if err := pub.PublishMonths(ctx, publishSite, report.Monthly); err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published %d months for %s\n", len(report.Monthly), publishSite)
	return nil
}
