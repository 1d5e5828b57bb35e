package cloudron

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Notification is a server-side event awaiting acknowledgement.
type Notification struct {
	ID           string
	Title        string
	Message      string
	CreationTime time.Time
	// RawCreationTime preserves the server value when it cannot be parsed.
	RawCreationTime string
	Acknowledged    bool
}

// AppError describes the failure reported for an application.
type AppError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// App is a read-only snapshot of an installed application's status.
type App struct {
	ID                string
	Title             string
	FQDN              string
	RunState          string
	InstallationState string
	Health            string
	Error             *AppError
}

// Run states reported by the apps endpoint.
const (
	RunStateRunning = "running"
	RunStateStopped = "stopped"
)

// Running reports whether the application is in the running state.
func (a App) Running() bool {
	return strings.EqualFold(strings.TrimSpace(a.RunState), RunStateRunning)
}

// Label returns the best human-readable name for the app.
func (a App) Label() string {
	switch {
	case strings.TrimSpace(a.Title) != "":
		return strings.TrimSpace(a.Title)
	case a.FQDN != "":
		return a.FQDN
	default:
		return a.ID
	}
}

type notificationsEnvelope struct {
	Notifications []notificationPayload `json:"notifications"`
}

type notificationPayload struct {
	ID           flexString `json:"id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	CreationTime string     `json:"creationTime"`
	Acknowledged bool       `json:"acknowledged"`
}

func (p notificationPayload) toNotification() Notification {
	n := Notification{
		ID:              string(p.ID),
		Title:           p.Title,
		Message:         p.Message,
		RawCreationTime: p.CreationTime,
		Acknowledged:    p.Acknowledged,
	}
	if ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(p.CreationTime)); err == nil {
		n.CreationTime = ts
	}
	return n
}

type appsEnvelope struct {
	Apps []appPayload `json:"apps"`
}

type appPayload struct {
	ID       flexString `json:"id"`
	Manifest struct {
		Title string `json:"title"`
	} `json:"manifest"`
	FQDN              string    `json:"fqdn"`
	RunState          string    `json:"runState"`
	InstallationState string    `json:"installationState"`
	Health            string    `json:"health"`
	Error             *AppError `json:"error"`
}

func (p appPayload) toApp() App {
	app := App{
		ID:                string(p.ID),
		Title:             p.Manifest.Title,
		FQDN:              p.FQDN,
		RunState:          p.RunState,
		InstallationState: p.InstallationState,
		Health:            p.Health,
	}
	if p.Error != nil && (p.Error.Message != "" || p.Error.Reason != "") {
		copied := *p.Error
		app.Error = &copied
	}
	return app
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
