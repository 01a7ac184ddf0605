package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.Logger
var atomicLevel zap.AtomicLevel

// InitLogger 初始化全局日志器，输出 JSON 格式，支持环境变量控制：
// - LOG_LEVEL=debug|info|warn|error（默认 info）
// - LOG_TO_FILE=true 或设置 LOG_FILE/LOG_DIR 任一时启用文件输出
// - LOG_FILE=./logs/roulette.log（优先于 LOG_DIR）
// - LOG_MAX_SIZE_MB=100、LOG_MAX_BACKUPS=7、LOG_MAX_DAYS=14、LOG_COMPRESS=true
func InitLogger() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	atomicLevel = zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))

	enc := zapcore.NewJSONEncoder(encCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), atomicLevel),
	}

	// 文件日志（可选，lumberjack 负责滚动）
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	if logFile == "" {
		if dir := strings.TrimSpace(os.Getenv("LOG_DIR")); dir != "" {
			logFile = filepath.Join(dir, "roulette.log")
		}
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_TO_FILE")), "true") && logFile == "" {
		logFile = filepath.Join(".", "logs", "roulette.log")
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			// 目录创建失败时只保留 stdout 输出，不中断启动
			_, _ = fmt.Fprintf(os.Stderr, "warning: create log dir failed: %v\n", err)
		} else {
			lw := &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    getenvInt("LOG_MAX_SIZE_MB", 100),
				MaxBackups: getenvInt("LOG_MAX_BACKUPS", 7),
				MaxAge:     getenvInt("LOG_MAX_DAYS", 14),
				Compress:   getenvBool("LOG_COMPRESS", true),
			}
			cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(lw), atomicLevel))
		}
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel 动态调整日志级别（debug/info/warn/error，非法值忽略）
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		atomicLevel.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	}
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func Info(msg string, fields ...zap.Field)   { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)   { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field)  { log.Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field)  { log.Debug(msg, fields...) }
func Fatalf(msg string, fields ...zap.Field) { log.Fatal(msg, fields...) }
func Sync()                                  { _ = log.Sync() }

// 统一补充 traceId 字段
func fieldsWithTrace(ctx context.Context, fields ...zap.Field) []zap.Field {
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("traceId", traceID))
	}
	return fields
}

func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	log.Info(msg, fieldsWithTrace(ctx, fields...)...)
}
func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	log.Warn(msg, fieldsWithTrace(ctx, fields...)...)
}
func ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	log.Error(msg, fieldsWithTrace(ctx, fields...)...)
}
func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	log.Debug(msg, fieldsWithTrace(ctx, fields...)...)
}
