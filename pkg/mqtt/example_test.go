package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/mqtt"
	"github.com/autopeer-io/dispatch/pkg/mqtt/topic"
)

// ExampleClient follows a room's event topic and republishes a retained status.
func ExampleClient() {
	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "dispatch-agent-example",
		KeepAlive:      30,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; autopaho connects and reconnects in the background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}
	defer client.Disconnect(ctx)

	topics := topic.NewTopicBuilder("autopeer/v1")

	// Handlers run on the reader goroutine; keep them short.
	onEvent := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("%s: %s\n", topic, payload)
	}
	if err := client.Subscribe(ctx, topics.Events("room-1"), 1, onEvent); err != nil {
		log.Error(err, "Failed to subscribe")
	}

	if err := client.AwaitConnection(ctx); err != nil {
		return
	}

	if err := client.Publish(ctx, topics.Status("room-1"), 1, true, []byte(`{"state":"connected"}`)); err != nil {
		log.Error(err, "Failed to publish status")
	}
}
