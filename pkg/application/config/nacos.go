package config

import (
	"fmt"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/spf13/viper"
)

// NacosConfig pulls a YAML document from a nacos config server.
type NacosConfig struct {
	dataID string
	group  string
	cli    config_client.IConfigClient
}

// NewNacosConfig reads the remote source from app.config.nacos.
func NewNacosConfig(conf *viper.Viper) *NacosConfig {
	cc := constant.ClientConfig{
		NamespaceId:         conf.GetString("app.config.nacos.namespace"),
		TimeoutMs:           conf.GetUint64("app.config.nacos.timeout"),
		NotLoadCacheAtStart: true,
		LogDir:              conf.GetString("app.config.nacos.log_dir"),
		CacheDir:            conf.GetString("app.config.nacos.cache_dir"),
		LogLevel:            conf.GetString("app.config.nacos.log_level"),
	}
	sc := []constant.ServerConfig{
		*constant.NewServerConfig(conf.GetString("app.config.nacos.addr"), conf.GetUint64("app.config.nacos.port")),
	}
	cli, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  &cc,
		ServerConfigs: sc,
	})
	if err != nil {
		panic(fmt.Errorf("[config.NewNacosConfig]create client: %w", err))
	}
	return &NacosConfig{
		dataID: conf.GetString("app.config.nacos.data_id"),
		group:  conf.GetString("app.config.nacos.group"),
		cli:    cli,
	}
}

func (n *NacosConfig) Fetch() (string, error) {
	content, err := n.cli.GetConfig(vo.ConfigParam{DataId: n.dataID, Group: n.group})
	if err != nil {
		return "", fmt.Errorf("[NacosConfig.Fetch]%s/%s: %w", n.group, n.dataID, err)
	}
	return content, nil
}
