package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// StartWatch 监听配置变化，变更时回调 onChange(old, new)。
// 仅在配置了 Nacos 时生效；本地文件配置不监听。
func StartWatch(ctx context.Context, onChange func(oldCfg, newCfg *Config)) error {
	if strings.TrimSpace(os.Getenv("NACOS_SERVER_ADDR")) == "" {
		fmt.Println("[Config] Nacos 未配置，跳过配置监听")
		return nil
	}

	client := nacosConfigClient
	dataID := strings.TrimSpace(os.Getenv("NACOS_DATA_ID"))
	group := strings.TrimSpace(os.Getenv("NACOS_GROUP"))
	if group == "" {
		group = "DEFAULT_GROUP"
	}

	if client == nil {
		var err error
		client, dataID, group, err = newNacosClient()
		if err != nil {
			return err
		}
		nacosConfigClient = client
	}

	err := client.ListenConfig(vo.ConfigParam{
		DataId: dataID,
		Group:  group,
		OnChange: func(namespace, group, dataId, data string) {
			fmt.Printf("[Config] Nacos 配置变更: namespace=%s, group=%s, dataId=%s\n",
				namespace, group, dataId)

			newCfg, err := parseByDataID(dataId, []byte(data))
			if err != nil {
				fmt.Printf("[Config] 解析 Nacos 配置失败: error=%v\n", err)
				return
			}

			oldCfg := GetCurrent()
			Set(newCfg)

			if onChange != nil {
				onChange(oldCfg, newCfg)
			}
			fmt.Println("[Config] Nacos 配置已更新")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to listen nacos config: %w", err)
	}

	fmt.Printf("[Config] Nacos 配置监听已启动: dataId=%s, group=%s\n", dataID, group)
	return nil
}
