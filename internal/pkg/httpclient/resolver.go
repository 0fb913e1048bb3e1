package httpclient

import (
	"context"
	"fmt"
)

// Resolver 把服务名解析为基础 URL，例如 http://10.0.0.3:8080。
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// StaticResolver 从配置中读取固定地址。
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, service string) (string, error) {
	if u, ok := r[service]; ok && u != "" {
		return u, nil
	}
	return "", fmt.Errorf("no static endpoint configured for service %q", service)
}

// FallbackResolver 依次尝试，直到某个解析器成功。
type FallbackResolver []Resolver

func (r FallbackResolver) Resolve(ctx context.Context, service string) (string, error) {
	var lastErr error
	for _, res := range r {
		if res == nil {
			continue
		}
		u, err := res.Resolve(ctx, service)
		if err == nil {
			return u, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no resolver for service %q", service)
	}
	return "", lastErr
}
