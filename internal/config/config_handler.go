package config

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix string = "ADMINCONSOLE"

type ConfigHandler struct {
	mainViper   *viper.Viper
	secretViper *viper.Viper
	lock        *sync.Mutex
}

func (c *ConfigHandler) HandleChanges(callback func(Config, error)) {
	c.mainViper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("main config file changed", "path", e.Name)
		callback(c.Config())
	})
	c.secretViper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("secret config file changed", "path", e.Name)
		callback(c.Config())
	})
}

// Creates a configuration handler that reads the configuration files, merges them and can watch
// them for changes. Please note that the merges replace whole arrays - they do not merge arrays.
// The secret file will always overwrite anything in the non-secret / regular file. And any environment
// variables will always rewrite stuff in the secret config, so the order of preference from most
// preferred to least is environment variables, secret config, non-secret config, defaults.
func NewConfigHandler(extraPaths ...string) *ConfigHandler {
	main := viper.New()
	main.SetConfigType("yaml")
	main.SetConfigName("config")
	setDefaults(main)
	secret := viper.New()
	secret.SetConfigType("yaml")
	secret.SetConfigName("secret_config")
	// Viper will look through the list of paths and use the first one where there is a file
	// so the path specified in the env variable will always take precedence over the rest
	configPaths := []string{}
	configPathEnv := os.Getenv("CONFIG_LOCATION")
	if configPathEnv != "" {
		configPaths = append(configPaths, configPathEnv)
	}
	configPaths = append(configPaths, extraPaths...)
	configPaths = append(configPaths, "/etc/adminconsole", ".")
	for _, path := range configPaths {
		main.AddConfigPath(path)
		secret.AddConfigPath(path)
	}
	return &ConfigHandler{secretViper: secret, mainViper: main, lock: &sync.Mutex{}}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("runningEnvironment", string(Development))
	v.SetDefault("debugMode", false)
	v.SetDefault("api.baseURL", "http://localhost:4000")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.rateLimits.enabled", false)
	v.SetDefault("api.rateLimits.rate", 10)
	v.SetDefault("api.rateLimits.burst", 20)
	v.SetDefault("session.store", SessionStoreFile)
	v.SetDefault("session.name", "default")
	v.SetDefault("session.filePath", "")
	v.SetDefault("session.tokenEncryption.enabled", false)
	v.SetDefault("session.tokenEncryption.secretKey", "")
	v.SetDefault("redis.type", DBTypeRedis)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.isSentinel", false)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.masterName", "")
	v.SetDefault("redis.dbIndex", 0)
	v.SetDefault("monitoring.sentry.enabled", false)
	v.SetDefault("monitoring.sentry.dsn", "")
	v.SetDefault("monitoring.sentry.environment", "")
	v.SetDefault("monitoring.sentry.sampleRate", 0)
	v.SetDefault("monitoring.prometheus.enabled", false)
	v.SetDefault("monitoring.prometheus.port", 8765)
	v.SetDefault("devBackend.host", "")
	v.SetDefault("devBackend.port", 4000)
	v.SetDefault("devBackend.jwtSecret", "")
	v.SetDefault("devBackend.accessTokenTTL", "15m")
	v.SetDefault("devBackend.refreshTokenTTL", "24h")
	v.SetDefault("devBackend.purgeInterval", "10m")
	v.SetDefault("devBackend.rateLimits.enabled", false)
	v.SetDefault("devBackend.rateLimits.rate", 20)
	v.SetDefault("devBackend.rateLimits.burst", 40)
	v.SetDefault("devBackend.allowOrigin", []string{})
	v.SetDefault("devBackend.seedAdmin.emailAddress", "")
	v.SetDefault("devBackend.seedAdmin.password", "")
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			parseStringAsURL(),
		),
	)
}

func (c *ConfigHandler) merge() error {
	var cm map[string]any
	err := c.secretViper.Unmarshal(&cm, decodeHook())
	if err != nil {
		return err
	}
	return c.mainViper.MergeConfigMap(cm)
}

func (c *ConfigHandler) getConfig() (Config, error) {
	var output Config
	err := c.mainViper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		slog.Debug("could not find a config file - only defaults, the secret file and environment variables will be used")
	}
	err = c.secretViper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		slog.Debug("could not find any secret config files - only the public file and environment variables will be used")
	}
	// the env variables will overwrite stuff in the secret config if set
	for _, key := range c.mainViper.AllKeys() {
		envKey := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		err := c.secretViper.BindEnv(key, envKey)
		if err != nil {
			return Config{}, err
		}
	}
	// here the secret config (with any env variables merged) will overwrite anything from the non-secret configuration
	err = c.merge()
	if err != nil {
		return Config{}, err
	}
	err = c.mainViper.Unmarshal(&output, decodeHook())
	if err != nil {
		return Config{}, err
	}
	err = output.Validate()
	if err != nil {
		return Config{}, err
	}
	return output, nil
}

func (c *ConfigHandler) Config() (Config, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.getConfig()
}

func (c *ConfigHandler) Watch() {
	c.mainViper.WatchConfig()
	c.secretViper.WatchConfig()
}

func parseStringAsURL() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (interface{}, error) {
		// Check that the data is string
		if f.Kind() != reflect.String {
			return data, nil
		}

		// Check that the target type is our custom type
		if t != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		// Return the parsed value
		dataStr, ok := data.(string)
		if !ok {
			return data, nil
		}
		url, err := url.Parse(dataStr)
		if err != nil {
			return nil, err
		}
		return url, nil
	}
}
