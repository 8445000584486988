// Package notifier relays the roster and connection status of the selected
// room to MQTT subscribers as retained messages.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
	"github.com/autopeer-io/dispatch/pkg/log"
	pkgmqtt "github.com/autopeer-io/dispatch/pkg/mqtt"
	"github.com/autopeer-io/dispatch/pkg/mqtt/topic"
)

const publishTimeout = 5 * time.Second

var _ core.Publisher = (*MQTTNotifier)(nil)

// MQTTNotifier publishes retained roster and status messages.
type MQTTNotifier struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	qos    int
}

// NewMQTTNotifier creates a notifier publishing through client.
func NewMQTTNotifier(client pkgmqtt.Client, topics *topic.TopicBuilder, qos int) *MQTTNotifier {
	return &MQTTNotifier{client: client, topics: topics, qos: qos}
}

// PublishRoster replaces the retained roster of room. An empty payload clears it.
func (n *MQTTNotifier) PublishRoster(ctx context.Context, room string, payload []byte) error {
	err := n.client.Publish(ctx, n.topics.Roster(room), n.qos, true, payload)
	metrics.RelayPublishes.WithLabelValues("roster", metrics.Status(err)).Inc()
	return err
}

// PublishStatus replaces the retained status of room. An empty payload clears it.
func (n *MQTTNotifier) PublishStatus(ctx context.Context, room string, payload []byte) error {
	err := n.client.Publish(ctx, n.topics.Status(room), n.qos, true, payload)
	metrics.RelayPublishes.WithLabelValues("status", metrics.Status(err)).Inc()
	return err
}

// Source is the session being relayed.
type Source interface {
	Status() model.Status
	Vehicles() []model.Vehicle
	Watch() (<-chan struct{}, func())
	OnStateChange(fn func(model.Status))
}

// RosterMessage is the payload of the roster topic.
type RosterMessage struct {
	Room      string          `json:"room"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Vehicles  []model.Vehicle `json:"vehicles"`
}

// Relay forwards session changes to a Publisher.
type Relay struct {
	pub   core.Publisher
	src   Source
	clock clock.PassiveClock
	log   log.Logger

	statusCh chan struct{}
	// room is the room whose retained messages were last written.
	room string
}

// NewRelay creates a Relay. It registers a state observer on src.
func NewRelay(pub core.Publisher, src Source, logger log.Logger) *Relay {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	r := &Relay{
		pub:      pub,
		src:      src,
		clock:    clock.RealClock{},
		log:      logger,
		statusCh: make(chan struct{}, 1),
	}
	src.OnStateChange(func(model.Status) {
		select {
		case r.statusCh <- struct{}{}:
		default:
		}
	})
	return r
}

// Run publishes the current state, then every change, until ctx is done.
// The retained messages of a room are cleared when it is deselected.
func (r *Relay) Run(ctx context.Context) error {
	changes, cancel := r.src.Watch()
	defer cancel()

	r.publishAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			r.sync(ctx, true, false)
		case <-r.statusCh:
			r.sync(ctx, false, true)
		}
	}
}

func (r *Relay) publishAll(ctx context.Context) {
	r.sync(ctx, true, true)
}

// sync publishes what changed. A room switch clears the old room and
// publishes both messages of the new one.
func (r *Relay) sync(ctx context.Context, roster, status bool) {
	st := r.src.Status()
	if st.Room != r.room {
		if r.room != "" {
			r.clear(ctx, r.room)
		}
		r.room = st.Room
		roster, status = true, true
	}
	if st.Room == "" {
		return
	}

	if roster {
		payload, err := json.Marshal(RosterMessage{
			Room:      st.Room,
			UpdatedAt: r.clock.Now().UTC(),
			Vehicles:  r.src.Vehicles(),
		})
		if err == nil {
			err = r.publish(ctx, r.pub.PublishRoster, st.Room, payload)
		}
		if err != nil {
			r.log.Error(err, "Failed to relay roster", "room", st.Room)
		}
	}
	if status {
		payload, err := json.Marshal(st)
		if err == nil {
			err = r.publish(ctx, r.pub.PublishStatus, st.Room, payload)
		}
		if err != nil {
			r.log.Error(err, "Failed to relay status", "room", st.Room)
		}
	}
}

func (r *Relay) clear(ctx context.Context, room string) {
	if err := r.publish(ctx, r.pub.PublishRoster, room, nil); err != nil {
		r.log.Warn("Failed to clear retained roster", "room", room, "error", err)
	}
	if err := r.publish(ctx, r.pub.PublishStatus, room, nil); err != nil {
		r.log.Warn("Failed to clear retained status", "room", room, "error", err)
	}
}

func (r *Relay) publish(ctx context.Context, fn func(context.Context, string, []byte) error, room string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := fn(ctx, room, payload); err != nil {
		return fmt.Errorf("publish to room %s: %w", room, err)
	}
	return nil
}
