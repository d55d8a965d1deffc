// oreon/defense · watchthelight <wtl>

package notify

import (
	"context"
	"fmt"
	"time"

	fdo "github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"
)

const (
	appName = "Oreon Detect"

	// ExpireTimeout is how long the desktop keeps the notification up.
	ExpireTimeout = 10 * time.Second

	// freedesktop urgency levels
	urgencyCritical byte = 2
)

// Desktop sends notifications over the session D-Bus.
type Desktop struct {
	conn *dbus.Conn
}

// NewDesktop opens a private session bus connection.
func NewDesktop() (*Desktop, error) {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session bus auth: %w", err)
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session bus hello: %w", err)
	}
	return &Desktop{conn: conn}, nil
}

// Notify implements Notifier.
func (d *Desktop) Notify(_ context.Context, summary, body string) error {
	_, err := fdo.SendNotification(d.conn, fdo.Notification{
		AppName: appName,
		AppIcon: "security-high",
		Summary: summary,
		Body:    body,
		Hints: map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(urgencyCritical),
		},
		ExpireTimeout: ExpireTimeout,
	})
	return err
}

// Close implements Notifier.
func (d *Desktop) Close() error {
	return d.conn.Close()
}
