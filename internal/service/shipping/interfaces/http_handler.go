package interfaces

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
)

type ShippingService interface {
	GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.Status, note string) (*domain.Shipment, error)
}

// ShipmentHandler 提供发货单查询以及承运商状态回调。
type ShipmentHandler struct {
	service ShippingService
}

func NewShipmentHandler(service ShippingService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

func (h *ShipmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /shipments/{orderId}", h.getShipment)
	mux.HandleFunc("POST /shipments/{orderId}/status", h.updateStatus)
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type shipmentDTO struct {
	ID              string                `json:"id"`
	OrderID         string                `json:"orderId"`
	UserID          string                `json:"userId,omitempty"`
	Carrier         string                `json:"carrier,omitempty"`
	TrackingNumber  string                `json:"trackingNumber,omitempty"`
	ShippingAddress domain.Address        `json:"shippingAddress"`
	Items           []domain.Line         `json:"items"`
	Status          string                `json:"status"`
	StatusHistory   []domain.HistoryEntry `json:"statusHistory"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func toDTO(s *domain.Shipment) shipmentDTO {
	items := s.Items
	if items == nil {
		items = []domain.Line{}
	}
	return shipmentDTO{
		ID:              s.ID,
		OrderID:         s.OrderID,
		UserID:          s.UserID,
		Carrier:         s.Carrier,
		TrackingNumber:  s.TrackingNumber,
		ShippingAddress: s.ShippingAddress,
		Items:           items,
		Status:          string(s.Status),
		StatusHistory:   s.History,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (h *ShipmentHandler) getShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetShipment(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, toDTO(s))
}

func (h *ShipmentHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := bootstrap.DecodeJSON(r, &req); err != nil {
		bootstrap.WriteError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.service.UpdateStatus(r.Context(), r.PathValue("orderId"), domain.Status(req.Status), req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, toDTO(s))
}

func (h *ShipmentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		bootstrap.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotCancellable):
		bootstrap.WriteError(w, http.StatusConflict, err)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		bootstrap.WriteError(w, http.StatusInternalServerError, err)
	}
}
