package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/application"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
)

// HeaderActor 标识调用方身份，缺省为 customer。
const HeaderActor = "X-Actor"

// OrderService 是 HTTP 层依赖的应用服务子集。
type OrderService interface {
	CreateOrder(ctx context.Context, req *application.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CancelOrder(ctx context.Context, id, reason, actor string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, actor, note string) (*domain.Order, error)
}

// OrderHandler 封装了 order 服务的 HTTP 处理器
type OrderHandler struct {
	service OrderService
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("POST /orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("PATCH /orders/{id}/status", h.updateStatus)
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req application.CreateOrderRequest
	if err := bootstrap.DecodeJSON(r, &req); err != nil {
		bootstrap.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		bootstrap.WriteError(w, http.StatusBadRequest, errors.New("userId is required"))
		return
	}
	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusCreated, application.ToOrderResponse(order))
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, application.ToOrderResponse(order))
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req application.CancelOrderRequest
	if r.ContentLength != 0 {
		if err := bootstrap.DecodeJSON(r, &req); err != nil {
			bootstrap.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}
	order, err := h.service.CancelOrder(r.Context(), r.PathValue("id"), req.Reason, actor(r, domain.ActorCustomer))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, application.ToOrderResponse(order))
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateStatusRequest
	if err := bootstrap.DecodeJSON(r, &req); err != nil {
		bootstrap.WriteError(w, http.StatusBadRequest, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), domain.Status(req.Status), actor(r, domain.ActorAdmin), req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, application.ToOrderResponse(order))
}

func actor(r *http.Request, fallback string) string {
	switch a := r.Header.Get(HeaderActor); a {
	case domain.ActorCustomer, domain.ActorAdmin, domain.ActorSystem:
		return a
	}
	return fallback
}

func (h *OrderHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	bootstrap.WriteError(w, status, err)
}

// StatusFor 把领域错误映射为 HTTP 状态码。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductUnavailable), errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotCancellable), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
