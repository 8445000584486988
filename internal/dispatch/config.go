package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/dispatch/internal/dispatch/archive"
	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/service"
	"github.com/autopeer-io/dispatch/internal/dispatch/importer"
	"github.com/autopeer-io/dispatch/internal/dispatch/notifier"
	"github.com/autopeer-io/dispatch/internal/dispatch/profile"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
	"github.com/autopeer-io/dispatch/internal/dispatch/server"
	httpserver "github.com/autopeer-io/dispatch/internal/dispatch/server/http"
	"github.com/autopeer-io/dispatch/internal/dispatch/snapshot"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/internal/dispatch/stream"
	"github.com/autopeer-io/dispatch/internal/dispatch/transport/mqtt"
	"github.com/autopeer-io/dispatch/internal/dispatch/transport/sse"
	"github.com/autopeer-io/dispatch/internal/dispatch/transport/websocket"
	"github.com/autopeer-io/dispatch/pkg/log"
	pkgmqtt "github.com/autopeer-io/dispatch/pkg/mqtt"
	"github.com/autopeer-io/dispatch/pkg/mqtt/topic"
	"github.com/autopeer-io/dispatch/pkg/options"
)

// archiveLinkExpiry is the lifetime of links to archived rosters.
const archiveLinkExpiry = 15 * time.Minute

type Config struct {
	APIOptions     *options.APIOptions
	StreamOptions  *options.StreamOptions
	SessionOptions *options.SessionOptions
	HttpOptions    *options.HttpOptions
	GrpcOptions    *options.GrpcOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	ArchiveOptions *options.ArchiveOptions
	RelayOptions   *options.RelayOptions
	ImportOptions  *options.ImportOptions
}

// NewAgent builds the session and every enabled adapter around it.
func (cfg *Config) NewAgent() (*Agent, error) {
	logger := log.WithName("dispatch")

	// 1. Remote dispatch service (Secondary Adapter)
	api := remote.New(cfg.APIOptions)

	// 2. Core: store, loader, gateway, profiles
	st := store.New()
	loader := snapshot.NewLoader(api, st, logger.WithName("snapshot"))
	gateway := command.NewGateway(api, st, loader, logger.WithName("command"))
	profiles := profile.NewCache(api, logger.WithName("profile"))

	// 3. MQTT client, shared by the mqtt transport and the relay
	var (
		mqttClient pkgmqtt.Client
		mqttDialer *mqtt.Dialer
		topics     *topic.TopicBuilder
	)
	if cfg.StreamOptions.Transport == options.TransportMQTT || cfg.RelayOptions.Enabled {
		topics = topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)

		ccfg := cfg.MqttOptions.ToClientConfig()
		if ccfg.ClientID == "" {
			ccfg.ClientID = "dispatch-agent-" + uuid.NewString()
		}
		ccfg.OnConnectionLost = func(err error) {
			if mqttDialer != nil {
				mqttDialer.ConnectionLost(err)
			}
		}

		client, err := pkgmqtt.NewClient(ccfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		mqttClient = client
	}

	// 4. Live stream
	var dialer core.Dialer
	switch cfg.StreamOptions.Transport {
	case options.TransportWebSocket:
		dialer = websocket.NewDialer(api, cfg.StreamOptions.HandshakeTimeout)
	case options.TransportMQTT:
		mqttDialer = mqtt.NewDialer(mqttClient, topics, cfg.MqttOptions.QoS, cfg.StreamOptions.HandshakeTimeout)
		dialer = mqttDialer
	default:
		dialer = sse.NewDialer(api, cfg.StreamOptions.HandshakeTimeout)
	}
	manager := stream.NewManager(stream.Config{
		Dialer:         dialer,
		Store:          st,
		Logger:         logger.WithName("stream").WithValues("transport", cfg.StreamOptions.Transport),
		BackoffInitial: cfg.StreamOptions.BackoffInitial,
		BackoffMax:     cfg.StreamOptions.BackoffMax,
	})

	// 5. Session service
	svc := service.New(service.Deps{
		Store:    st,
		Loader:   loader,
		Manager:  manager,
		Gateway:  gateway,
		Profiles: profiles,
		Rooms:    api,
		Logger:   logger.WithName("session"),
	})

	// 6. Optional workers
	var (
		workers []server.Server
		locator httpserver.ArchiveLocator
	)
	if cfg.RelayOptions.Enabled {
		pub := notifier.NewMQTTNotifier(mqttClient, topics, cfg.MqttOptions.QoS)
		relay := notifier.NewRelay(pub, svc, logger.WithName("relay"))
		workers = append(workers, server.RunFunc(relay.Run))
	}
	if cfg.ArchiveOptions.Enabled {
		bucket, err := archive.NewMinIOBucket(cfg.S3Options)
		if err != nil {
			return nil, err
		}
		exporter := archive.NewExporter(bucket, svc, cfg.ArchiveOptions.Interval, cfg.ArchiveOptions.Prefix, nil, logger.WithName("archive"))
		workers = append(workers, archiveWorker(bucket, exporter))
		locator = archive.NewLocator(bucket, cfg.ArchiveOptions.Prefix, archiveLinkExpiry)
	}
	if cfg.ImportOptions.WatchFile != "" {
		w := importer.NewWatcher(cfg.ImportOptions.WatchFile, cfg.ImportOptions.Debounce, svc.Import, logger.WithName("importer"))
		workers = append(workers, server.RunFunc(w.Run))
	}

	// 7. Ingress servers (Primary Adapters)
	serverConfig := &server.Config{
		HttpOptions: cfg.HttpOptions,
		GrpcOptions: cfg.GrpcOptions,
	}
	srvManager, err := server.NewManager(serverConfig, svc, locator, workers...)
	if err != nil {
		return nil, fmt.Errorf("failed to init server manager: %w", err)
	}

	return &Agent{
		svc:           svc,
		serverManager: srvManager,
		mqttClient:    mqttClient,
		room:          cfg.SessionOptions.Room,
		groupID:       cfg.SessionOptions.GroupID,
	}, nil
}
