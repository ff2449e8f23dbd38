// internal/service/promotion/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"primeshop/internal/service/promotion/application"
	"primeshop/internal/service/promotion/domain"
)

// VoucherHandler 封装了优惠券服务的 HTTP 处理器。
type VoucherHandler struct {
	service *application.VoucherService
}

func NewVoucherHandler(service *application.VoucherService) *VoucherHandler {
	return &VoucherHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *VoucherHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vouchers/validate", h.handleValidate)
	mux.HandleFunc("/vouchers/redeem", h.handleRedeem)
	mux.HandleFunc("/vouchers/create", h.handleCreate)
	mux.HandleFunc("/vouchers/deactivate", h.handleDeactivate)
	mux.HandleFunc("/vouchers/list_active", h.handleListActive)
	mux.HandleFunc("/vouchers/applicable", h.handleApplicable)
	mux.HandleFunc("/vouchers/minigame", h.handleMinigame)
}

// handleValidate 只读校验：返回整批是否可用与折扣总额，不消耗使用次数。
func (h *VoucherHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.ValidateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.service.Validate(ctx, req.Codes, req.OrderValue, domain.Fact{OrderValue: req.OrderValue})
	writeJSON(w, result)
}

// handleRedeem 核销一批券码，整批原子生效。
func (h *VoucherHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req struct {
		Codes       []string `json:"codes"`
		OrderValue  float64  `json:"order_value"`
		ProductIDs  []int64  `json:"product_ids,omitempty"`
		CategoryIDs []int64  `json:"category_ids,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fact := domain.Fact{
		OrderValue:  req.OrderValue,
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
	}
	redeemed, err := h.service.Redeem(ctx, req.Codes, req.OrderValue, fact)
	if err != nil {
		writeVoucherError(w, err)
		return
	}

	vouchers := make([]*application.VoucherResponse, len(redeemed))
	total := 0.0
	for i, r := range redeemed {
		vouchers[i] = application.ToResponse(r.Voucher)
		total += r.Discount
	}
	writeJSON(w, map[string]interface{}{
		"vouchers":        vouchers,
		"discount_amount": math.Min(total, req.OrderValue),
	})
}

func (h *VoucherHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.CreateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	voucher, err := h.service.Create(ctx, &req)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	writeJSON(w, application.ToResponse(voucher))
}

func (h *VoucherHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.service.Deactivate(ctx, id); err != nil {
		writeVoucherError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deactivated"})
}

func (h *VoucherHandler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	vouchers, err := h.service.ListActive(ctx)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	writeJSON(w, toResponses(vouchers))
}

// handleApplicable 返回对给定订单金额当前可用的券，用于下单页展示。
func (h *VoucherHandler) handleApplicable(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	orderValue, err := strconv.ParseFloat(r.URL.Query().Get("order_value"), 64)
	if err != nil {
		http.Error(w, "order_value is required", http.StatusBadRequest)
		return
	}
	vouchers, err := h.service.ListApplicable(ctx, orderValue)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	writeJSON(w, toResponses(vouchers))
}

func (h *VoucherHandler) handleMinigame(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	voucher, err := h.service.CreateMinigameVoucher(ctx, userID)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	writeJSON(w, application.ToResponse(voucher))
}

// writeVoucherError 根据错误类型映射 HTTP 状态码。
func writeVoucherError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrVoucherNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrVoucherCodeTaken):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrVoucherExpired),
		errors.Is(err, domain.ErrVoucherInvalid),
		errors.Is(err, domain.ErrVoucherUsageExhausted),
		errors.Is(err, domain.ErrVoucherMinOrderNotMet),
		errors.Is(err, domain.ErrVoucherNotApplicable):
		statusCode = http.StatusForbidden
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}

func toResponses(vouchers []*domain.Voucher) []*application.VoucherResponse {
	out := make([]*application.VoucherResponse, len(vouchers))
	for i, v := range vouchers {
		out[i] = application.ToResponse(v)
	}
	return out
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
