package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-sync/internal/connection"
	"support-sync/internal/env"
	"support-sync/internal/history"
	"support-sync/internal/identity"
	"support-sync/internal/model"
	"support-sync/internal/notify"
	"support-sync/internal/syncer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := env.Require(env.WSURL, env.HistoryAPIURL, env.AuthBearer); err != nil {
		log.Fatal(err)
	}

	bearer := env.Get(env.AuthBearer)
	viewerID, err := identity.UserIDFromBearer(bearer)
	if err != nil {
		log.Fatalf("resolving viewer id: %v", err)
	}

	sinks := []notify.Sink{notify.LogSink{}}
	if addr := env.Get(env.NotifyRedisURL); addr != "" {
		channel := env.GetOrDefault(env.NotifyChannel, "support-alerts")
		sinks = append(sinks, notify.NewRedisSink(addr, env.Get(env.NotifyRedisPass), channel))
	}
	if url := env.Get(env.NotifyWebhookURL); url != "" {
		sinks = append(sinks, notify.NewWebhookSink(url, nil))
	}

	fetcher := history.NewHTTPFetcher(
		env.Get(env.HistoryAPIURL),
		bearer,
		&http.Client{Timeout: 15 * time.Second},
	)
	manager := connection.NewManager(connection.Config{URL: env.Get(env.WSURL)})

	controller := syncer.New(syncer.Config{
		Conn:     manager,
		Fetcher:  fetcher,
		Bridge:   notify.NewBridge(sinks...),
		ViewerID: viewerID,
		OnTicketsUpdated: func(tickets []model.Ticket) {
			unread := 0
			for _, t := range tickets {
				unread += t.UnreadCount
			}
			log.Printf("tickets updated: %d tickets, %d unread", len(tickets), unread)
		},
	})

	manager.Connect(viewerID, func() {
		if err := controller.Refresh(context.Background()); err != nil {
			log.Printf("initial refresh failed: %v", err)
		}
	}, controller.HandleFrame)

	metricsAddr := env.GetOrDefault(env.MetricsAddr, ":9091")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("metrics listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	manager.Disconnect()
	controller.Shutdown()
}
