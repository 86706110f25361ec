package bootstrap

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/fault-lib/pkg/config"
)

// LoggerOptions 日志初始化选项
type LoggerOptions struct {
	// ServiceName 服务名称，用于日志文件命名
	ServiceName string
	// Stdout 标准输出，nil 时使用 os.Stdout
	Stdout io.Writer
	// AddContainerHook 是否添加容器ID钩子
	AddContainerHook bool
}

// containerHook 添加容器ID到日志
type containerHook struct {
	containerID string
}

func (h *containerHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *containerHook) Fire(entry *log.Entry) error {
	entry.Data["container_id"] = h.containerID
	return nil
}

// detectContainerID 检测容器ID
func detectContainerID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}

	if data, err := os.ReadFile("/etc/hostname"); err == nil {
		hostname := strings.TrimSpace(string(data))
		if hostname != "" {
			return hostname
		}
	}

	return "unknown"
}

// InitLogger 初始化日志，cfg.File.Enabled 时同时输出到滚动文件
func InitLogger(cfg config.LogConfig, serviceName string) error {
	return InitLoggerWithOptions(cfg, LoggerOptions{
		ServiceName:      serviceName,
		AddContainerHook: cfg.File.Enabled,
	})
}

// InitLoggerWithOptions 使用完整选项初始化日志
func InitLoggerWithOptions(cfg config.LogConfig, opts LoggerOptions) error {
	// 设置日志格式
	switch cfg.Format {
	case "text":
		log.SetFormatter(&log.TextFormatter{})
	default:
		log.SetFormatter(&log.JSONFormatter{})
	}

	// 设置日志级别
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(log.InfoLevel)
		log.Warnf("invalid log level %q, fallback to info", cfg.Level)
	}

	// 设置打印调用信息
	log.SetReportCaller(cfg.ReportCaller)

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	log.SetOutput(stdout)

	// 设置文件输出
	if cfg.File.Enabled {
		writer, err := newRotateWriter(cfg.File, opts.ServiceName)
		if err != nil {
			return err
		}
		log.SetOutput(io.MultiWriter(stdout, writer))
	}

	// 添加容器钩子
	if opts.AddContainerHook {
		log.AddHook(&containerHook{containerID: detectContainerID()})
	}

	return nil
}

// newRotateWriter 创建按天滚动的日志文件
func newRotateWriter(fileCfg config.LogFileConfig, serviceName string) (*rotatelogs.RotateLogs, error) {
	logDir := fileCfg.Dir
	if logDir == "" {
		logDir = "./logs"
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Errorf("创建日志目录失败: %v", err)
		return nil, err
	}

	filename := fileCfg.Filename
	if filename == "" {
		filename = serviceName
	}
	if filename == "" {
		filename = "app"
	}

	maxAge := fileCfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}

	rotationDays := fileCfg.RotationDays
	if rotationDays <= 0 {
		rotationDays = 1
	}

	writer, err := rotatelogs.New(
		filepath.Join(logDir, filename+".%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(logDir, filename+".log")),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(rotationDays)*24*time.Hour),
	)
	if err != nil {
		log.Errorf("设置日志输出失败: %v", err)
		return nil, err
	}
	return writer, nil
}
