package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/session"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(joinCmd)
}

var joinCmd = &cobra.Command{
	Use:   "join ROOM",
	Short: "Monitor a single room and print its summary when it ends",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func runJoin(cmd *cobra.Command, args []string) error {
	roomID := args[0]
	cfg, injector, manager, err := startup()
	if err != nil {
		return err
	}
	defer closeTranscriber(injector)
	if err := manager.StartSession(cmd.Context(), roomID); err != nil {
		return err
	}
	ended := manager.Ended(roomID)
	if ended == nil {
		return fmt.Errorf("session for room %s ended before it could be observed", roomID)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var summary *backend.SessionSummary
	select {
	case summary = <-ended:
	case sig := <-sigCh:
		slog.Info("interrupted; ending session", "signal", sig.String(), "room_id", roomID)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		summary, err = manager.EndSession(ctx, roomID, session.StopReasonInterrupted)
		if errors.Is(err, session.ErrSessionNotFound) {
			// Ended concurrently by another trigger.
			summary = <-ended
		} else if err != nil {
			return err
		}
	}
	if summary == nil {
		return fmt.Errorf("no summary produced for room %s", roomID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
