package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelay/internal/api"
	"reelay/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// client builds an API client for the running daemon. The --server flag wins
// over the configured bind address.
func (c *commandContext) client() (*api.Client, error) {
	var server, token string
	if c.serverFlag != nil {
		server = strings.TrimSpace(*c.serverFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		if server == "" {
			server = strings.TrimSpace(cfg.Paths.APIBind)
		}
		token = cfg.Paths.APIToken
	} else if server == "" {
		return nil, err
	}
	if server == "" {
		return nil, errors.New("dashboard API is not enabled; set paths.api_bind or pass --server")
	}
	return api.NewClient(server, token), nil
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	return fn(client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for cur := cmd; cur != nil; cur = cur.Parent() {
		if cur.Annotations != nil && cur.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
