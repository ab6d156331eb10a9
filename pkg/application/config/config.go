package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// NewConfig loads the YAML file at path, applies defaults and environment
// overrides, and merges the nacos document on top when app.config.nacos is set.
func NewConfig(path string) *viper.Viper {
	conf := viper.New()
	setDefaults(conf)
	conf.SetConfigFile(path)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	if err := conf.ReadInConfig(); err != nil {
		panic(fmt.Errorf("[config.NewConfig]read %s: %w", path, err))
	}

	if conf.IsSet("app.config.nacos") {
		remote, err := NewNacosConfig(conf).Fetch()
		if err != nil {
			panic(fmt.Errorf("[config.NewConfig]nacos: %w", err))
		}
		conf.SetConfigType("yaml")
		if err := conf.MergeConfig(strings.NewReader(remote)); err != nil {
			panic(fmt.Errorf("[config.NewConfig]merge nacos config: %w", err))
		}
	}

	if err := Validate(conf); err != nil {
		panic(err)
	}
	return conf
}

func setDefaults(conf *viper.Viper) {
	conf.SetDefault("app.name", "judge-sandbox")
	conf.SetDefault("app.env", "local")
	conf.SetDefault("app.addr", ":8090")
	conf.SetDefault("app.base_url", "/api")
	conf.SetDefault("app.auth.header", "auth")
	conf.SetDefault("app.auth.secret", "secretKey")

	conf.SetDefault("app.log.level", "info")
	conf.SetDefault("app.log.encoding", "console")
	conf.SetDefault("app.log.max_size", 64)
	conf.SetDefault("app.log.max_backups", 8)
	conf.SetDefault("app.log.max_age", 7)

	conf.SetDefault("app.sandbox.mode", "docker")
	conf.SetDefault("app.sandbox.workers", 2*runtime.NumCPU())
	conf.SetDefault("app.sandbox.queue_size", 1000)
	conf.SetDefault("app.sandbox.workspace_root", "tempCode")
	conf.SetDefault("app.sandbox.run_timeout", "5s")
	conf.SetDefault("app.sandbox.compile_timeout", "10s")
	conf.SetDefault("app.sandbox.memory_limit_kb", 128*1024)
	conf.SetDefault("app.sandbox.denylist", []string{"Files", "exec"})

	conf.SetDefault("app.sandbox.docker.image", "multi-language-image")
	conf.SetDefault("app.sandbox.docker.name_prefix", "container-pool-thread-")
	conf.SetDefault("app.sandbox.docker.mount_target", "/app")
	conf.SetDefault("app.sandbox.docker.memory_mb", 128)
	conf.SetDefault("app.sandbox.docker.pids_limit", 64)
	conf.SetDefault("app.sandbox.docker.remove_on_close", false)
}

// Validate rejects settings the sandbox cannot run with.
func Validate(conf *viper.Viper) error {
	switch mode := conf.GetString("app.sandbox.mode"); mode {
	case "docker", "native":
	default:
		return fmt.Errorf("[config.Validate]unknown sandbox mode %q", mode)
	}
	if conf.GetInt("app.sandbox.workers") <= 0 {
		return fmt.Errorf("[config.Validate]app.sandbox.workers must be positive")
	}
	if conf.GetInt("app.sandbox.queue_size") < 0 {
		return fmt.Errorf("[config.Validate]app.sandbox.queue_size must not be negative")
	}
	if conf.GetDuration("app.sandbox.run_timeout") <= 0 {
		return fmt.Errorf("[config.Validate]app.sandbox.run_timeout must be positive")
	}
	if conf.GetDuration("app.sandbox.compile_timeout") <= 0 {
		return fmt.Errorf("[config.Validate]app.sandbox.compile_timeout must be positive")
	}
	if conf.GetString("app.auth.secret") == "" {
		return fmt.Errorf("[config.Validate]app.auth.secret must be set")
	}
	if conf.GetString("app.sandbox.workspace_root") == "" {
		return fmt.Errorf("[config.Validate]app.sandbox.workspace_root must be set")
	}
	return nil
}
