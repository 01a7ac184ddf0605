package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"gopkg.in/yaml.v3"
)

// Config 服务配置。时间类字段统一使用毫秒或秒，字段注释标明。

type Config struct {
	Server struct {
		Port     int    `yaml:"port" json:"port"`
		LogLevel string `yaml:"log_level" json:"log_level"`
	} `yaml:"server" json:"server"`

	Database struct {
		DSN                string `yaml:"dsn" json:"dsn"`
		MaxOpenConns       int    `yaml:"max_open_conns" json:"max_open_conns"`
		MaxIdleConns       int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec" json:"conn_max_lifetime_sec"`
	} `yaml:"database" json:"database"`

	Redis struct {
		Addr     string `yaml:"addr" json:"addr"`
		Password string `yaml:"password" json:"password"`
		DB       int    `yaml:"db" json:"db"`
	} `yaml:"redis" json:"redis"`

	// RocketMQ 公共事件流（中奖/开奖等事件对外广播），未配置时仅走站内通知
	RocketMQ struct {
		Endpoint      string `yaml:"endpoint" json:"endpoint"`
		ProducerGroup string `yaml:"producer_group" json:"producer_group"`
		TopicFeed     string `yaml:"topic_feed" json:"topic_feed"`
		AccessKey     string `yaml:"access_key" json:"access_key"`
		SecretKey     string `yaml:"secret_key" json:"secret_key"`
	} `yaml:"rocketmq" json:"rocketmq"`

	SMTP struct {
		Host     string `yaml:"host" json:"host"`
		Port     int    `yaml:"port" json:"port"`
		Username string `yaml:"username" json:"username"`
		Password string `yaml:"password" json:"password"`
		From     string `yaml:"from" json:"from"`
	} `yaml:"smtp" json:"smtp"`

	// Upload 凭证/封面上传限制
	Upload struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxSizeMB   int      `yaml:"max_size_mb" json:"max_size_mb"`
		AllowedExts []string `yaml:"allowed_exts" json:"allowed_exts"`
	} `yaml:"upload" json:"upload"`

	// Draw 定时开奖扫描
	Draw struct {
		SweepIntervalSec int `yaml:"sweep_interval_sec" json:"sweep_interval_sec"`
	} `yaml:"draw" json:"draw"`

	// Notify 通知通道与兜底顺序（如 ["email","inapp"]）
	Notify struct {
		FallbackOrder []string `yaml:"fallback_order" json:"fallback_order"`
		StaffBatchGap int      `yaml:"staff_batch_gap_ms" json:"staff_batch_gap_ms"` // 批量通知间隔基数（毫秒）
	} `yaml:"notify" json:"notify"`

	Auth struct {
		JWT struct {
			Secret          string `yaml:"secret" json:"secret"`
			AccessTokenTTL  int    `yaml:"access_token_ttl" json:"access_token_ttl"`   // 秒
			RefreshTokenTTL int    `yaml:"refresh_token_ttl" json:"refresh_token_ttl"` // 秒
			Issuer          string `yaml:"issuer" json:"issuer"`
		} `yaml:"jwt" json:"jwt"`
		Admin struct {
			Enabled bool   `yaml:"enabled" json:"enabled"`
			Token   string `yaml:"token" json:"token"`
		} `yaml:"admin" json:"admin"`
		Captcha struct {
			Enabled bool `yaml:"enabled" json:"enabled"`
		} `yaml:"captcha" json:"captcha"`
		Social struct {
			Providers map[string]SocialProvider `yaml:"providers" json:"providers"`
		} `yaml:"social" json:"social"`
	} `yaml:"auth" json:"auth"`

	RateLimit struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
		Global  struct {
			RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
			Burst             int `yaml:"burst" json:"burst"`
		} `yaml:"global" json:"global"`
		ByIP struct {
			RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
			WindowSeconds     int `yaml:"window_seconds" json:"window_seconds"`
		} `yaml:"by_ip" json:"by_ip"`
		ByUser struct {
			RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
			WindowSeconds     int `yaml:"window_seconds" json:"window_seconds"`
		} `yaml:"by_user" json:"by_user"`
	} `yaml:"rate_limit" json:"rate_limit"`

	CORS struct {
		Enabled          bool     `yaml:"enabled" json:"enabled"`
		AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins"`
		AllowedMethods   []string `yaml:"allowed_methods" json:"allowed_methods"`
		AllowedHeaders   []string `yaml:"allowed_headers" json:"allowed_headers"`
		ExposedHeaders   []string `yaml:"exposed_headers" json:"exposed_headers"`
		AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
		MaxAge           int      `yaml:"max_age" json:"max_age"`
	} `yaml:"cors" json:"cors"`

	// 动态配置：功能开关与业务阈值
	FeatureFlags map[string]bool  `yaml:"feature_flags" json:"feature_flags"`
	Thresholds   map[string]int64 `yaml:"thresholds" json:"thresholds"`
}

// SocialProvider 社交登录提供方：使用 userinfo 端点验证客户端提交的访问令牌
type SocialProvider struct {
	UserinfoURL string `yaml:"userinfo_url" json:"userinfo_url"`
	IDField     string `yaml:"id_field" json:"id_field"`
	EmailField  string `yaml:"email_field" json:"email_field"`
	NameField   string `yaml:"name_field" json:"name_field"`
}

// Load 优先从 Nacos 配置中心读取，失败则降级到本地文件。
// 环境变量：
//   - NACOS_SERVER_ADDR: Nacos 地址（如 "127.0.0.1:8848"，设置后优先生效）
//   - NACOS_DATA_ID / NACOS_NAMESPACE / NACOS_GROUP
//   - CONFIG_FILE: 本地配置文件路径（默认 config/dev.yaml）
func Load() (*Config, error) {
	if addr := strings.TrimSpace(os.Getenv("NACOS_SERVER_ADDR")); addr != "" {
		cfg, err := loadFromNacos()
		if err == nil {
			fmt.Printf("[Config] 配置已从 Nacos 加载: server=%s, dataId=%s\n",
				addr, os.Getenv("NACOS_DATA_ID"))
			return cfg, nil
		}
		fmt.Printf("[Config] 从 Nacos 加载配置失败，降级使用本地文件: error=%v\n", err)
	}

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config/dev.yaml"
	}

	cfg, err := loadFromFile(configFile)
	if err == nil {
		fmt.Printf("[Config] 配置已从本地文件加载: file=%s\n", configFile)
		return cfg, nil
	}

	return nil, fmt.Errorf("failed to load config from nacos and local file (%s): %w", configFile, err)
}

// loadFromFile 从本地 JSON 或 YAML 文件加载
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch filepath.Ext(filePath) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", filepath.Ext(filePath))
	}

	return &cfg, nil
}

// loadFromNacos 从 Nacos 配置中心加载
func loadFromNacos() (*Config, error) {
	client, dataID, group, err := newNacosClient()
	if err != nil {
		return nil, err
	}

	content, err := client.GetConfig(vo.ConfigParam{DataId: dataID, Group: group})
	if err != nil {
		return nil, fmt.Errorf("failed to get config from nacos: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("nacos config is empty: dataId=%s, group=%s", dataID, group)
	}

	cfg, err := parseByDataID(dataID, []byte(content))
	if err != nil {
		return nil, err
	}

	nacosConfigClient = client
	return cfg, nil
}

// parseByDataID 根据 Data ID 扩展名选择解析器，默认先 YAML 再 JSON
func parseByDataID(dataID string, data []byte) (*Config, error) {
	var cfg Config
	switch filepath.Ext(dataID) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config from nacos: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config from nacos: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			if err2 := json.Unmarshal(data, &cfg); err2 != nil {
				return nil, fmt.Errorf("failed to parse config from nacos: yaml_err=%v, json_err=%v", err, err2)
			}
		}
	}
	return &cfg, nil
}

// newNacosClient 从环境变量构建 Nacos 配置客户端
func newNacosClient() (config_client.IConfigClient, string, string, error) {
	serverAddr := strings.TrimSpace(os.Getenv("NACOS_SERVER_ADDR"))
	if serverAddr == "" {
		return nil, "", "", errors.New("NACOS_SERVER_ADDR not set")
	}
	dataID := strings.TrimSpace(os.Getenv("NACOS_DATA_ID"))
	if dataID == "" {
		return nil, "", "", errors.New("NACOS_DATA_ID not set")
	}
	namespace := strings.TrimSpace(os.Getenv("NACOS_NAMESPACE"))
	if namespace == "" {
		namespace = "public"
	}
	group := strings.TrimSpace(os.Getenv("NACOS_GROUP"))
	if group == "" {
		group = "DEFAULT_GROUP"
	}

	timeoutMS := 5000
	if s := strings.TrimSpace(os.Getenv("NACOS_TIMEOUT_MS")); s != "" {
		if t, err := strconv.Atoi(s); err == nil && t > 0 {
			timeoutMS = t
		}
	}

	var serverConfigs []constant.ServerConfig
	for _, addr := range strings.Split(serverAddr, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		parts := strings.Split(addr, ":")
		if len(parts) != 2 {
			return nil, "", "", fmt.Errorf("invalid NACOS_SERVER_ADDR format: %s (expected host:port)", addr)
		}
		port, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid port in NACOS_SERVER_ADDR: %s", parts[1])
		}
		serverConfigs = append(serverConfigs, constant.ServerConfig{IpAddr: parts[0], Port: port})
	}
	if len(serverConfigs) == 0 {
		return nil, "", "", errors.New("no valid server address in NACOS_SERVER_ADDR")
	}

	clientConfig := constant.ClientConfig{
		NamespaceId:         namespace,
		TimeoutMs:           uint64(timeoutMS),
		NotLoadCacheAtStart: true,
		LogDir:              "/tmp/nacos/log",
		CacheDir:            "/tmp/nacos/cache",
		LogLevel:            "warn",
	}
	if u, p := os.Getenv("NACOS_USERNAME"), os.Getenv("NACOS_PASSWORD"); u != "" && p != "" {
		clientConfig.Username = u
		clientConfig.Password = p
	}

	client, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create nacos config client: %w", err)
	}
	return client, dataID, group, nil
}

// nacosConfigClient 全局 Nacos 客户端，配置监听复用
var nacosConfigClient config_client.IConfigClient

// globalConfig 全局配置实例
var globalConfig *Config

// Set 设置全局配置
func Set(cfg *Config) {
	globalConfig = cfg
	SetCurrent(cfg)
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}
