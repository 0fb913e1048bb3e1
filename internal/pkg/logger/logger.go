// Package logger 提供基于 zerolog 的全局结构化日志，
// Ctx 会自动附带 trace_id 与 correlation_id。
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/correlation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 初始化全局 logger。format 为 "console" 时输出人类可读格式。
func Init(serviceName, level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stdout
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger()
}

// Ctx 返回带有请求级字段的 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	c := log.Logger.With()
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c = c.Str("trace_id", sc.TraceID().String())
		}
		if id := correlation.FromContext(ctx); id != "" {
			c = c.Str("correlation_id", id)
		}
	}
	l := c.Logger()
	return &l
}
