// Package dispatch runs the dispatch agent: a live roster session for one
// room, served over HTTP and gRPC.
package dispatch

import (
	"context"
	"time"

	"github.com/autopeer-io/dispatch/internal/dispatch/archive"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/service"
	"github.com/autopeer-io/dispatch/internal/dispatch/server"
	"github.com/autopeer-io/dispatch/pkg/log"
	pkgmqtt "github.com/autopeer-io/dispatch/pkg/mqtt"
)

type Agent struct {
	svc           *service.Service
	serverManager *server.Manager
	mqttClient    pkgmqtt.Client

	room    string
	groupID string
}

// Run joins the configured room and serves until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	if a.mqttClient != nil {
		if err := a.mqttClient.Start(ctx); err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.mqttClient.Disconnect(disconnectCtx)
		}()
	}
	defer a.svc.Close()

	a.join(ctx)

	err := a.serverManager.Start(ctx)
	log.Info("Agent shutting down...")
	return err
}

// join selects the startup room. A group without an active room is not fatal;
// a room can still be selected over the API.
func (a *Agent) join(ctx context.Context) {
	switch {
	case a.room != "":
		a.svc.SelectRoom(ctx, a.room)
	case a.groupID != "":
		room, err := a.svc.SelectGroup(ctx, a.groupID)
		if err != nil {
			log.Error(err, "Failed to join the active room of group", "group", a.groupID)
			return
		}
		log.Info("Joined active room of group", "group", a.groupID, "room", room)
	}
}

func archiveWorker(bucket *archive.Bucket, exporter *archive.Exporter) server.RunFunc {
	return func(ctx context.Context) error {
		if err := bucket.EnsureBucket(ctx); err != nil {
			// Uploads are retried on every tick.
			log.Error(err, "Failed to prepare archive bucket")
		}
		return exporter.Run(ctx)
	}
}
