// Package correlation 在 context 中携带一次业务流程的关联ID，
// HTTP 入口生成或透传，Kafka 消息头负责跨服务传播。
package correlation

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header 是 HTTP 请求与 Kafka 消息共用的关联ID头。
const Header = "X-Correlation-ID"

type ctxKey struct{}

// WithID 返回携带关联ID的新 context；空ID 原样返回。
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 读取关联ID，不存在时返回空字符串。
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure 保证 context 中有关联ID，没有则生成一个。
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithID(ctx, id), id
}

// Middleware 为每个请求注入关联ID，并回写到响应头。
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithID(r.Context(), r.Header.Get(Header))
		ctx, id := Ensure(ctx)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
