// Package screensaver reports when the desktop session's screensaver
// becomes active, using the ActiveChanged signal on the session bus.
package screensaver

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/yllada/revelation-indicator/common"
)

// Interfaces emitting ActiveChanged(bool) on the session bus.
var interfaces = []string{
	"org.freedesktop.ScreenSaver",
	"org.gnome.ScreenSaver",
}

// Watcher listens for screensaver activation.
type Watcher struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	once    sync.Once
	err     error
}

// Watch connects to the session bus and calls onActive, from a background
// goroutine, each time the screensaver turns on. It stops when ctx is done.
func Watch(ctx context.Context, onActive func()) (*Watcher, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	for _, iface := range interfaces {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember("ActiveChanged"),
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribing to %s: %w", iface, err)
		}
	}

	w := &Watcher{conn: conn, signals: make(chan *dbus.Signal, 8)}
	conn.Signal(w.signals)
	go w.loop(ctx, onActive)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context, onActive func()) {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-w.signals:
			if !ok {
				return
			}
			if active, ok := parseActive(sig); ok && active {
				common.LogDebug("Screensaver activated (%s)", sig.Name)
				onActive()
			}
		}
	}
}

// Close disconnects from the session bus.
func (w *Watcher) Close() error {
	w.once.Do(func() {
		w.conn.RemoveSignal(w.signals)
		w.err = w.conn.Close()
	})
	return w.err
}

// parseActive extracts the state carried by an ActiveChanged signal.
func parseActive(sig *dbus.Signal) (active, ok bool) {
	if sig == nil || len(sig.Body) != 1 {
		return false, false
	}
	matched := false
	for _, iface := range interfaces {
		if sig.Name == iface+".ActiveChanged" {
			matched = true
			break
		}
	}
	if !matched {
		return false, false
	}
	active, ok = sig.Body[0].(bool)
	return active, ok
}
