// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"primeshop/internal/pkg/logger"
	"primeshop/internal/pkg/redis"
	"primeshop/internal/service/order/application"
	"primeshop/internal/service/order/domain"
	promotion "primeshop/internal/service/promotion/domain"
)

const idempotencyTTL = 10 * time.Minute

// OrderHandler 封装了订单服务的 HTTP 处理器。
// 操作主体通过 user_id 参数显式传入，不读取任何进程级的登录态。
type OrderHandler struct {
	service *application.OrderApplicationService
	redis   *redis.Client
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例。
func NewOrderHandler(service *application.OrderApplicationService, redisClient *redis.Client) *OrderHandler {
	return &OrderHandler{service: service, redis: redisClient}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/orders/create", h.handleCreateOrder)
	mux.HandleFunc("/orders/update_status", h.handleUpdateStatus)
	mux.HandleFunc("/orders/estimated_delivery", h.handleEstimatedDelivery)
	mux.HandleFunc("/orders/get", h.handleGetOrder)
	mux.HandleFunc("/orders/list", h.handleListOrders)
	mux.HandleFunc("/orders/list_by_status", h.handleListByStatus)
	mux.HandleFunc("/cart/apply_vouchers", h.handleApplyVouchers)
	mux.HandleFunc("/cart/remove_vouchers", h.handleRemoveVouchers)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userID, err := queryInt64(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// 幂等保护：带 Idempotency-Key 的重复提交直接拒绝，
	// 处理失败时释放键，允许客户端原样重试。
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		first, err := h.redis.AcquireOnce(ctx, "order:idem:"+idemKey, idempotencyTTL)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("idempotency check failed")
		} else if !first {
			http.Error(w, "duplicate order submission", http.StatusConflict)
			return
		}
	}

	order, err := h.service.CreateOrder(ctx, userID, &req)
	if err != nil {
		if idemKey != "" {
			if relErr := h.redis.Release(ctx, "order:idem:"+idemKey); relErr != nil {
				logger.Ctx(ctx).Error().Err(relErr).Msg("failed to release idempotency key")
			}
		}
		writeError(w, err)
		return
	}

	writeJSON(w, application.ToOrderResponse(order))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req struct {
		OrderID int64  `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(ctx, req.OrderID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, application.ToOrderResponse(order))
}

func (h *OrderHandler) handleEstimatedDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req struct {
		OrderID   int64     `json:"order_id"`
		Estimated time.Time `json:"estimated_delivery_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.SetEstimatedDelivery(ctx, req.OrderID, req.Estimated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, application.ToOrderResponse(order))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	id, err := queryInt64(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.service.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, application.ToOrderResponse(order))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userID, err := queryInt64(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.service.ListOrdersByUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toResponses(orders))
}

func (h *OrderHandler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	raw := r.URL.Query().Get("statuses")
	if raw == "" {
		http.Error(w, "statuses is required", http.StatusBadRequest)
		return
	}
	var statuses []domain.Status
	for _, part := range strings.Split(raw, ",") {
		status, err := domain.ParseStatus(strings.TrimSpace(part))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		statuses = append(statuses, status)
	}

	orders, err := h.service.ListOrdersByStatuses(ctx, statuses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toResponses(orders))
}

func (h *OrderHandler) handleApplyVouchers(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userID, err := queryInt64(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Codes []string `json:"codes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cart, err := h.service.ApplyVouchersToCart(ctx, userID, req.Codes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"cart_id":         cart.ID,
		"voucher_codes":   cart.VoucherCodes,
		"discount_amount": cart.DiscountAmount,
		"total_amount":    cart.TotalAmount(),
	})
}

func (h *OrderHandler) handleRemoveVouchers(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userID, err := queryInt64(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cart, err := h.service.RemoveVouchersFromCart(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"cart_id":         cart.ID,
		"discount_amount": cart.DiscountAmount,
	})
}

// writeError 根据错误类型映射 HTTP 状态码。
func writeError(w http.ResponseWriter, err error) {
	var (
		oos        *domain.OutOfStockError
		transition *domain.InvalidTransitionError
	)
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, promotion.ErrVoucherNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart):
		statusCode = http.StatusBadRequest
	case errors.As(err, &oos),
		errors.As(err, &transition):
		statusCode = http.StatusConflict
	case errors.Is(err, promotion.ErrVoucherExpired),
		errors.Is(err, promotion.ErrVoucherInvalid),
		errors.Is(err, promotion.ErrVoucherUsageExhausted),
		errors.Is(err, promotion.ErrVoucherMinOrderNotMet),
		errors.Is(err, promotion.ErrVoucherNotApplicable):
		statusCode = http.StatusForbidden
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}

func toResponses(orders []*domain.Order) []*application.OrderResponse {
	out := make([]*application.OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = application.ToOrderResponse(o)
	}
	return out
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, errors.Errorf("%s is required", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
