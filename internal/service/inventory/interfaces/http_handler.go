package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/domain"
)

type InventoryService interface {
	CheckBulk(ctx context.Context, lines []domain.Line) ([]domain.Availability, error)
	SetStock(ctx context.Context, productID string, available int) (domain.StockLevel, error)
	GetReservation(ctx context.Context, orderID string) (*domain.Reservation, error)
}

// InventoryHandler 封装了库存服务的 HTTP 处理器
type InventoryHandler struct {
	service InventoryService
}

func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /inventory/check-bulk", h.checkBulk)
	mux.HandleFunc("PUT /inventory/stock/{productId}", h.setStock)
	mux.HandleFunc("GET /inventory/reservations/{orderId}", h.getReservation)
}

type lineDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type checkBulkRequest struct {
	Items []lineDTO `json:"items"`
}

type availabilityDTO struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	InStock   bool   `json:"inStock"`
	Reason    string `json:"reason,omitempty"`
}

type checkBulkResponse struct {
	Items []availabilityDTO `json:"items"`
}

type setStockRequest struct {
	Available int `json:"available"`
}

type stockLevelDTO struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
}

type reservationDTO struct {
	OrderID string    `json:"orderId"`
	State   string    `json:"state"`
	Items   []lineDTO `json:"items"`
}

func (h *InventoryHandler) checkBulk(w http.ResponseWriter, r *http.Request) {
	var req checkBulkRequest
	if err := bootstrap.DecodeJSON(r, &req); err != nil {
		bootstrap.WriteError(w, http.StatusBadRequest, err)
		return
	}
	lines := make([]domain.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	res, err := h.service.CheckBulk(r.Context(), lines)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := checkBulkResponse{Items: make([]availabilityDTO, 0, len(res))}
	for _, a := range res {
		resp.Items = append(resp.Items, availabilityDTO{
			ProductID: a.ProductID, Requested: a.Requested, Available: a.Available, InStock: a.InStock, Reason: a.Reason,
		})
	}
	bootstrap.WriteJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) setStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := bootstrap.DecodeJSON(r, &req); err != nil {
		bootstrap.WriteError(w, http.StatusBadRequest, err)
		return
	}
	level, err := h.service.SetStock(r.Context(), r.PathValue("productId"), req.Available)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, stockLevelDTO{ProductID: level.ProductID, Available: level.Available, Reserved: level.Reserved})
}

func (h *InventoryHandler) getReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetReservation(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dto := reservationDTO{OrderID: res.OrderID, State: string(res.State), Items: make([]lineDTO, 0, len(res.Lines))}
	for _, l := range res.Lines {
		dto.Items = append(dto.Items, lineDTO{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	bootstrap.WriteJSON(w, http.StatusOK, dto)
}

func (h *InventoryHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidLine):
		bootstrap.WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrReservationNotFound):
		bootstrap.WriteError(w, http.StatusNotFound, err)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		bootstrap.WriteError(w, http.StatusInternalServerError, err)
	}
}
