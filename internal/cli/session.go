package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/config"
	"github.com/matzehuels/mvnfetch/pkg/resolver"
)

const (
	// memoryEntries bounds the in-process metadata tier.
	memoryEntries = 4096

	// frontTTL bounds how long a document promoted from a slower tier stays
	// in memory.
	frontTTL = 5 * time.Minute

	// redisPrefix namespaces metadata keys in a shared Redis.
	redisPrefix = "mvnfetch:"
)

// session is the state a command needs to resolve references.
type session struct {
	cfg      *config.Configuration
	resolver *resolver.Resolver
	cache    cache.Cache
}

func (s *session) Close() error {
	return s.cache.Close()
}

// properties layers flags over MVNFETCH_* variables over the properties file.
func (c *CLI) properties(cmd *cobra.Command) (config.Properties, error) {
	path := c.flags.configPath
	if path == "" {
		path = defaultConfigPath()
	}
	var file config.Properties
	if path != "" {
		var err error
		if file, err = config.LoadFile(path); err != nil {
			return config.Properties{}, err
		}
	}
	env, err := config.FromEnv(c.lookupEnv)
	if err != nil {
		return config.Properties{}, err
	}
	return config.Merge(c.flags.properties(cmd), env, file), nil
}

// configuration resolves the effective configuration for cmd. It is built
// once per CLI; later calls return the same value.
func (c *CLI) configuration(cmd *cobra.Command) (*config.Configuration, error) {
	if c.loader == nil {
		props, err := c.properties(cmd)
		if err != nil {
			return nil, err
		}
		c.loader = config.NewLoader(props, config.Options{Home: c.home, Logger: c.Logger})
	}
	return c.loader.Configuration()
}

// newSession builds the configuration, metadata cache and resolver.
func (c *CLI) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.configuration(cmd)
	if err != nil {
		return nil, err
	}
	mc, err := openMetadataCache(cmd.Context(), cfg.MetadataCache)
	if err != nil {
		return nil, err
	}
	r := resolver.New(cfg, resolver.Options{
		MetadataCache: mc,
		Logger:        c.Logger,
	})
	return &session{cfg: cfg, resolver: r, cache: mc}, nil
}

// openMetadataCache builds the backend named by value. Persistent backends
// get an in-memory front tier.
func openMetadataCache(ctx context.Context, value string) (cache.Cache, error) {
	kind, err := config.ParseMetadataCache(value)
	if err != nil {
		return nil, err
	}
	switch kind {
	case config.MetadataCacheNone:
		return cache.NewNullCache(), nil
	case config.MetadataCacheMemory:
		mem, err := cache.NewMemoryCache(memoryEntries)
		if err != nil {
			return nil, err
		}
		return mem, nil
	case config.MetadataCacheRedis:
		back, err := cache.NewRedisCache(ctx, strings.TrimSpace(value), redisPrefix)
		if err != nil {
			return nil, err
		}
		return tiered(back)
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	back, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return tiered(back)
}

func tiered(back cache.Cache) (cache.Cache, error) {
	front, err := cache.NewMemoryCache(memoryEntries)
	if err != nil {
		back.Close()
		return nil, err
	}
	return cache.NewTiered(front, back, frontTTL), nil
}
