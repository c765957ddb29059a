// Package notify turns classified sync events into user-facing alerts. The
// bridge is strictly best-effort: a sink that fails is logged and skipped, and
// nothing here ever propagates back into the synchronizer.
package notify

import (
	"context"
	"log"
	"time"

	"support-sync/utils"
)

const (
	maxBodyRunes   = 120
	publishTimeout = 10 * time.Second
)

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

type Bridge struct {
	sinks []Sink
}

func NewBridge(sinks ...Sink) *Bridge {
	return &Bridge{sinks: sinks}
}

// Publish fans the alert out to every sink on its own goroutine and returns
// immediately, so a hung sink can never stall frame delivery. Errors are
// swallowed; each delivery round is bounded by publishTimeout.
func (b *Bridge) Publish(ctx context.Context, title, body string) {
	n := Notification{
		Title: title,
		Body:  utils.Truncate(utils.CollapseSpaces(body), maxBodyRunes),
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		for _, sink := range b.sinks {
			if err := sink.Notify(ctx, n); err != nil {
				log.Printf("notify: sink %T failed: %v", sink, err)
			}
		}
	}()
}

// LogSink writes alerts to the process log. Always configured as the last
// resort so alerts are never fully lost.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, n Notification) error {
	log.Printf("notify: %s: %s", n.Title, n.Body)
	return nil
}
