package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withStore opens the state store for the duration of fn. Logs go to stderr
// at warn level.
func (c *commandContext) withStore(fn func(cfg *config.Config, items *repository.ItemRepository) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "ghostctl",
	})
	logger.SetDefaultLogger(log)

	db, err := repository.InitDB(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(cfg, repository.NewItemRepository(db))
}
