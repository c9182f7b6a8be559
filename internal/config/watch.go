package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch loads the configuration at configPath, hands it to onChange, and then
// calls onChange again with a fresh configuration after every write to the
// file until ctx is done. Reloads that fail to parse are logged and skipped.
// Calls to onChange never overlap.
func Watch(ctx context.Context, configPath string, logger *zap.Logger, onChange func(*Configuration)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	conf, err := LoadConfiguration(configPath)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	deliver := func(c *Configuration) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange(c)
	}
	deliver(conf)

	v := newViper(true)
	v.SetConfigFile(configPath)
	v.SetConfigType(configTypeFor(configPath))
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file, %w", err)
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		logger.Info("configuration changed",
			zap.String("op", "config.Watch"),
			zap.String("file", event.Name),
			zap.String("event", event.Op.String()),
		)

		reloaded, err := LoadConfiguration(configPath)
		if err != nil {
			logger.Error("failed to reload configuration, keeping previous",
				zap.String("op", "config.Watch"),
				zap.String("file", configPath),
				zap.Error(err),
			)
			return
		}
		deliver(reloaded)
	})
	v.WatchConfig()

	<-ctx.Done()
	return nil
}
