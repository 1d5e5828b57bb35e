package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/history"
)

type appView struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	FQDN              string `json:"fqdn,omitempty"`
	RunState          string `json:"runState"`
	InstallationState string `json:"installationState,omitempty"`
	Health            string `json:"health,omitempty"`
	ErrorReason       string `json:"errorReason,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}

func newAppView(app cloudron.App) appView {
	view := appView{
		ID:                app.ID,
		Title:             app.Label(),
		FQDN:              app.FQDN,
		RunState:          app.RunState,
		InstallationState: app.InstallationState,
		Health:            app.Health,
	}
	if app.Error != nil {
		view.ErrorReason = app.Error.Reason
		view.ErrorMessage = app.Error.Message
	}
	return view
}

type notificationView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	CreationTime string `json:"creationTime"`
	Acknowledged bool   `json:"acknowledged"`
}

func newNotificationView(n cloudron.Notification) notificationView {
	created := n.RawCreationTime
	if !n.CreationTime.IsZero() {
		created = n.CreationTime.UTC().Format(time.RFC3339)
	}
	return notificationView{
		ID:           n.ID,
		Title:        n.Title,
		Message:      n.Message,
		CreationTime: created,
		Acknowledged: n.Acknowledged,
	}
}

type runView struct {
	RunID      string         `json:"runId"`
	StartedAt  string         `json:"startedAt"`
	DurationMS int64          `json:"durationMs"`
	Outcome    string         `json:"outcome"`
	DryRun     bool           `json:"dryRun"`
	ErrorKind  string         `json:"errorKind,omitempty"`
	Error      string         `json:"error,omitempty"`
	Counts     history.Counts `json:"counts"`
}

func newRunView(run history.Run) runView {
	return runView{
		RunID:      run.RunID,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
		Outcome:    run.Outcome,
		DryRun:     run.DryRun,
		ErrorKind:  run.ErrorKind,
		Error:      run.ErrorMessage,
		Counts:     run.Counts,
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
