package cmd

import (
	"fmt"

	"example.com/backstage/services/devicetype/internal/core"
	"example.com/backstage/services/devicetype/internal/infrastructure"
)

// runtime holds the wired service graph shared by serve and enroll.
type runtime struct {
	registry   *core.ServiceRegistry
	dispatcher *core.OperationDispatcher
	closers    []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func buildRuntime(withPush bool) (*runtime, error) {
	rt := &runtime{}
	serviceConfig := core.ServiceConfig{
		Logger: logger,
	}

	// --- Infrastructure Setup ---
	if cfg.Database.Driver != "" {
		logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
		db, err := infrastructure.NewDatabase(cfg.Database)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.closers = append(rt.closers, func() { db.Close() })

		if cfg.Database.Driver == "sqlite" {
			if err := db.Migrate(core.Models()...); err != nil {
				rt.Close()
				return nil, fmt.Errorf("database migration failed: %w", err)
			}
		}
		serviceConfig.Store = core.NewDeviceRepository(db.DB)
	} else {
		logger.Info("No database driver configured, keeping devices in memory")
	}

	if cfg.Redis.Enabled {
		logger.Info("Connecting to cache...")
		cache, err := infrastructure.NewDeviceCache(cfg.Redis)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("cache connection failed: %w", err)
		}
		rt.closers = append(rt.closers, func() { cache.Close() })
		serviceConfig.Cache = cache
	}

	if cfg.ServiceBus.Enabled {
		logger.Info("Connecting to messaging service...")
		messaging, err := infrastructure.NewMessaging(cfg.ServiceBus)
		if err != nil {
			logger.WithError(err).Warn("Messaging service unavailable, continuing without it")
		} else {
			rt.closers = append(rt.closers, func() { messaging.Close() })
			serviceConfig.Events = messaging
		}
	}

	// --- Device Types ---
	rt.registry = core.NewServiceRegistry()
	generator := core.NewDeviceTypeGenerator(serviceConfig)
	opts := core.BuildOptions{DefaultClaimable: cfg.DeviceTypes.DefaultClaimable}

	loaded, err := core.LoadDeviceTypes(cfg.DeviceTypes.Dir, opts, generator, rt.registry, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load device types: %w", err)
	}
	logger.WithField("count", len(loaded)).Info("Device types registered")

	rt.dispatcher = core.NewOperationDispatcher(rt.registry, logger)
	rt.dispatcher.SetMaxDeliveryAttempts(cfg.DeviceTypes.MaxAttempts)
	if withPush && cfg.MQTT.Enabled {
		notifier, err := infrastructure.NewMQTTPushNotifier(infrastructure.MQTTConfig{
			BrokerURL:         cfg.MQTT.BrokerURL,
			ClientID:          cfg.MQTT.ClientID,
			Username:          cfg.MQTT.Username,
			Password:          cfg.MQTT.Password,
			QoS:               cfg.MQTT.QoS,
			CleanSession:      cfg.MQTT.CleanSession,
			KeepAlive:         cfg.MQTT.KeepAlive,
			ConnectTimeout:    cfg.MQTT.ConnectTimeout,
			MaxReconnectDelay: cfg.MQTT.MaxReconnectDelay,
		}, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("invalid MQTT configuration: %w", err)
		}
		if err := notifier.Start(); err != nil {
			logger.WithError(err).Warn("MQTT push notifier unavailable, MQTT operations will be rejected")
		} else {
			rt.closers = append(rt.closers, notifier.Stop)
			rt.dispatcher.RegisterNotifier(core.PushTypeMQTT, notifier)
		}
	}

	if withPush && cfg.HTTPPush.Enabled {
		notifier, err := infrastructure.NewHTTPPushNotifier(cfg.HTTPPush, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("invalid HTTP push configuration: %w", err)
		}
		rt.dispatcher.RegisterNotifier(core.PushTypeHTTP, notifier)
	}

	return rt, nil
}
