// Gray Logic Bridges - cloud protocol bridges for Gray Logic.
//
// This binary logs in to the Panasonic Comfort Cloud, polls the account's
// air conditioners and exposes them on the Gray Logic MQTT bus. An optional
// local HTTP API reports session and device state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-bridges/migrations"

	"github.com/nerrad567/gray-logic-bridges/internal/api"
	"github.com/nerrad567/gray-logic-bridges/internal/bridges/comfortcloud"
	"github.com/nerrad567/gray-logic-bridges/internal/cloudauth"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components together and blocks until ctx is cancelled.
// Teardown runs through deferred calls in reverse start order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic bridges",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "comfortcloud", cfg.ComfortCloud.String())

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := connectInflux(ctx, cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	hub := api.NewHub(cfg.WebSocket, log)
	deps := api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Checks:  checks,
		Hub:     hub,
		Version: version,
	}

	if cfg.ComfortCloud.Enabled {
		session, bridge, startErr := startComfortCloud(ctx, cfg, db, mqttClient, influxClient, hub, log)
		if startErr != nil {
			return startErr
		}
		defer func() {
			log.Info("stopping Comfort Cloud bridge")
			bridge.Stop()
		}()
		deps.Session = session
		deps.Bridge = bridge
	} else {
		log.Info("Comfort Cloud bridge disabled")
	}

	if cfg.API.Enabled {
		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		go hub.Run(ctx)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns GRAYLOGIC_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectInflux returns a nil client when telemetry is disabled.
func connectInflux(ctx context.Context, cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)
	return client, nil
}

// startComfortCloud builds the cloud session, restores any saved token and
// starts the bridge. The first poll performs the login if needed.
func startComfortCloud(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	hub *api.Hub,
	log *logging.Logger,
) (*cloudauth.Session, *comfortcloud.Bridge, error) {
	cc := cfg.ComfortCloud
	opts := []cloudauth.Option{cloudauth.WithLogger(log)}
	if cc.PersistToken {
		opts = append(opts, cloudauth.WithTokenStore(cloudauth.NewSQLiteTokenStore(db.DB)))
	}

	session, err := cloudauth.New(cloudauth.Config{
		Username:      cc.Username,
		Password:      cc.Password,
		Trace:         cc.Trace,
		AuthURL:       cc.AuthURL,
		APIURL:        cc.APIURL,
		AppVersion:    cc.AppVersion,
		AppVersionURL: cc.AppVersionURL,
		Timeout:       cc.GetRequestTimeout(),
	}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cloud session: %w", err)
	}
	if err := session.Restore(ctx); err != nil {
		log.Warn("could not restore cloud token, a fresh login will follow", "error", err)
	}
	log.Info("cloud session ready",
		"account", logging.Redact(cc.Username),
		"state", session.State(),
		"app_version", session.DetectAppVersion(ctx),
	)

	bridgeOpts := comfortcloud.Options{
		BridgeID:       cfg.Bridge.ID,
		Version:        version,
		API:            comfortcloud.NewAPI(session, session.APIURL()),
		Session:        session,
		Publisher:      mqttClient,
		Sink:           hub,
		PollInterval:   cc.GetPollInterval(),
		HealthInterval: cfg.GetHealthInterval(),
		Logger:         log,
	}
	if influxClient != nil {
		bridgeOpts.Telemetry = influxClient
	}

	bridge, err := comfortcloud.NewBridge(bridgeOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating Comfort Cloud bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting Comfort Cloud bridge: %w", err)
	}
	log.Info("Comfort Cloud bridge started", "poll_interval", cc.GetPollInterval())
	return session, bridge, nil
}
