package config

import (
	"os"
	"strings"
)

// GetSecretOrEnv 从 Docker Secret 文件或环境变量读取敏感信息
// 优先级: {NAME}_FILE 指定的文件 > {NAME} 环境变量 > 默认值
//
// 示例:
//
//	password := GetSecretOrEnv("KAFKA_PASSWORD", "")
//	// KAFKA_PASSWORD_FILE=/run/secrets/kafka-password 存在时读取文件内容
func GetSecretOrEnv(name string, defaultValue string) string {
	// 检查 {NAME}_FILE 环境变量
	if filePath := os.Getenv(name + "_FILE"); filePath != "" {
		if data, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	// 回退到环境变量
	if value := os.Getenv(name); value != "" {
		return value
	}

	return defaultValue
}

// SecretDefinition Secret 定义
type SecretDefinition struct {
	Name     string  // Secret 名称 (如 REDIS_PASSWORD)
	Target   *string // 目标字段指针
	Default  string  // 配置文件与环境都没有时使用
	Required bool    // 是否必需
}

// LoadConfigWithSecrets 加载配置并注入 Secrets
// Secret 文件或环境变量覆盖配置文件中的值；都没有时保留配置文件的值，再回退到 Default
//
// 示例:
//
//	cfg := &Config{}
//	secretDefs := []SecretDefinition{
//	    {Name: "REDIS_PASSWORD", Target: &cfg.Redis.Password},
//	    {Name: "KAFKA_PASSWORD", Target: &cfg.Kafka.Password, Required: true},
//	}
//	if err := LoadConfigWithSecrets(cfg, secretDefs); err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigWithSecrets(cfg interface{}, secrets []SecretDefinition, opts ...LoadOptions) error {
	// 先加载 YAML 配置
	if err := LoadConfig(cfg, opts...); err != nil {
		return err
	}

	// 然后注入 Secrets
	for _, s := range secrets {
		fallback := s.Default
		if s.Target != nil && *s.Target != "" {
			fallback = *s.Target
		}
		value := GetSecretOrEnv(s.Name, fallback)
		if s.Required && value == "" {
			return &SecretNotFoundError{Name: s.Name}
		}
		if s.Target != nil {
			*s.Target = value
		}
	}

	return nil
}

// SecretNotFoundError Secret 未找到错误
type SecretNotFoundError struct {
	Name string
}

func (e *SecretNotFoundError) Error() string {
	return "required secret not found: " + e.Name
}
