// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/correlation"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StatusError 表示下游返回了非 2xx 状态码。
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d: %s", e.Service, e.Code, e.Body)
}

// Client 是一个可追踪的HTTP客户端，按服务名解析地址。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	resolver   Resolver
}

// NewClient 创建客户端。http.Client 不设置 Timeout，超时完全由传入的 context 控制。
func NewClient(tracer trace.Tracer, resolver Resolver) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
		resolver:   resolver,
	}
}

// PostJSON 向 service 的 path 发送 JSON 请求，并把响应解码到 out。
func (c *Client) PostJSON(ctx context.Context, service, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, service, path, in, out)
}

// GetJSON 发送 GET 请求并解码响应。
func (c *Client) GetJSON(ctx context.Context, service, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, service, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, service, path string, in, out interface{}) error {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call-%s", service), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	baseURL, err := c.resolver.Resolve(ctx, service)
	if err != nil {
		return fail(errors.Wrapf(err, "resolve %s", service))
	}
	url := strings.TrimRight(baseURL, "/") + path

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fail(errors.Wrap(err, "encode request"))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := correlation.FromContext(ctx); id != "" {
		req.Header.Set(correlation.Header, id)
	}

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fail(errors.Wrapf(err, "%s %s", method, url))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fail(&StatusError{Service: service, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))})
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(errors.Wrapf(err, "decode response from %s", service))
	}
	return nil
}
