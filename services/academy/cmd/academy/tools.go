package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/drone-academy/internal/platform/breaker"
	"github.com/example/drone-academy/services/academy/internal/config"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/transcript"
	"github.com/example/drone-academy/services/academy/internal/youtube"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist <playlist-id>",
	Short: "List the lessons of a video playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := toolLogger(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		clients, err := config.LoadClients()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		yt, err := youtube.New(ctx, clients.YouTube,
			youtube.WithCircuitBreaker(breaker.New("youtube", clients.Breaker, log)),
			youtube.WithLogger(log),
		)
		if err != nil {
			return err
		}
		lessons, err := yt.FetchPlaylistVideos(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), lessons)
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <video-id>",
	Short: "Print the timestamped transcript of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := toolLogger(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		clients, err := config.LoadClients()
		if err != nil {
			return err
		}
		segments, err := transcript.New(clients.Transcript, log).FetchTranscript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			return fmt.Errorf("no transcript available for %s", args[0])
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(cmd.OutOrStdout(), segments)
		}
		for _, line := range format.Lines(segments) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var contentCmd = &cobra.Command{
	Use:   "content <video-id>",
	Short: "Generate the summary and knowledge check for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := toolLogger(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		clients, err := config.LoadClients()
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		gen, err := newGenerator(ctx, clients, log)
		if err != nil {
			return err
		}
		ctrl := coursecontent.New(transcript.New(clients.Transcript, log), gen, log)
		defer ctrl.Close()

		ctrl.Load(args[0])
		if err := ctrl.Wait(ctx); err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		if err := printJSON(cmd.OutOrStdout(), snap); err != nil {
			return err
		}
		if snap.State == coursecontent.StateError {
			return fmt.Errorf("content generation failed: %s", snap.Error)
		}
		return nil
	},
}

func init() {
	transcriptCmd.Flags().Bool("json", false, "Print raw segments as JSON")
	contentCmd.Flags().Duration("timeout", 3*time.Minute, "Give up after this long")
}
