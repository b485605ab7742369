package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "familytree_go/internal/service"

// TraceConfig 追踪配置
type TraceConfig struct {
	Enabled     bool   `yaml:"enabled" env:"TRACE_ENABLED" env-default:"false"`
	ServiceName string `yaml:"service_name" env:"TRACE_SERVICE_NAME" env-default:"familytree"`
	Environment string `yaml:"environment" env:"TRACE_ENVIRONMENT" env-default:"development"`
	PrettyPrint bool   `yaml:"pretty_print" env:"TRACE_PRETTY" env-default:"false"`
}

// InitTracer 初始化全局TracerProvider，返回关闭函数。未启用时返回空操作
func InitTracer(cfg TraceConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := make([]stdouttrace.Option, 0, 1)
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// startSpan 为服务方法开启span
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan 记录错误并结束span
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
