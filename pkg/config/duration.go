package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Duration 支持 YAML/JSON 反序列化，单位为秒
// 可以从数字（秒数）或字符串（如 "30s"）解析
type Duration int64

// Duration 返回 time.Duration 值
func (d Duration) Duration() time.Duration {
	return time.Duration(d) * time.Second
}

// Seconds 返回秒数
func (d Duration) Seconds() int64 {
	return int64(d)
}

// ParseDuration 解析秒数或 time.ParseDuration 格式
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(d / time.Second), nil
}

var durationType = reflect.TypeOf(Duration(0))

// durationHook 供 viper 解码 Duration 字段
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseDuration(data.(string))
}
