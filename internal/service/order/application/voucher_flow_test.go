// internal/service/order/application/voucher_flow_test.go
//
// 贯通下单与券台账的真实装配：只有仓储是内存假件，
// 订单服务经由真实的 VoucherLedgerAdapter 调用真实的 VoucherService。
package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace/noop"

	"primeshop/internal/service/order/domain"
	"primeshop/internal/service/order/infrastructure/adapter"
	promoapp "primeshop/internal/service/promotion/application"
	promotion "primeshop/internal/service/promotion/domain"
)

type fakePromotionRepo struct {
	mu       sync.Mutex
	vouchers map[string]*promotion.Voucher
}

func newFakePromotionRepo(vouchers ...*promotion.Voucher) *fakePromotionRepo {
	repo := &fakePromotionRepo{vouchers: make(map[string]*promotion.Voucher)}
	for i, v := range vouchers {
		v.ID = int64(i + 1)
		repo.vouchers[v.Code] = v
	}
	return repo
}

func (r *fakePromotionRepo) FindByID(_ context.Context, id int64) (*promotion.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.ID == id {
			clone := *v
			return &clone, nil
		}
	}
	return nil, promotion.ErrVoucherNotFound
}

func (r *fakePromotionRepo) FindByCode(_ context.Context, code string) (*promotion.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok {
		return nil, promotion.ErrVoucherNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *fakePromotionRepo) FindActiveByCode(_ context.Context, code string) (*promotion.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok || !v.IsActive {
		return nil, promotion.ErrVoucherNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *fakePromotionRepo) FindActive(_ context.Context) ([]*promotion.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promotion.Voucher
	for _, v := range r.vouchers {
		if v.IsActive {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePromotionRepo) Create(_ context.Context, voucher *promotion.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	voucher.ID = int64(len(r.vouchers) + 1)
	clone := *voucher
	r.vouchers[voucher.Code] = &clone
	return nil
}

func (r *fakePromotionRepo) Save(_ context.Context, voucher *promotion.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vouchers[voucher.Code]
	if !ok {
		return promotion.ErrVoucherNotFound
	}
	usage := stored.CurrentUsage
	clone := *voucher
	clone.CurrentUsage = usage
	r.vouchers[voucher.Code] = &clone
	return nil
}

func (r *fakePromotionRepo) RedeemOnce(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.ID != id {
			continue
		}
		if !v.IsActive {
			return false, nil
		}
		if v.MaxUsage != nil && v.CurrentUsage >= *v.MaxUsage {
			return false, nil
		}
		v.CurrentUsage++
		return true, nil
	}
	return false, nil
}

func (r *fakePromotionRepo) usage(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vouchers[code].CurrentUsage
}

type allowAllRules struct{}

func (allowAllRules) Evaluate(string, promotion.Fact) (bool, error) { return true, nil }

type passTx struct{}

func (passTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// withVoucherLedger 把订单服务接到真实的券服务上。
func withVoucherLedger(h *harness, repo *fakePromotionRepo) {
	vouchers := promoapp.NewVoucherService(repo, allowAllRules{}, passTx{}, noop.NewTracerProvider().Tracer("test"))
	h.service = NewOrderApplicationService(
		h.orders, h.carts, h.products,
		NewInventoryReserver(h.products),
		adapter.NewVoucherLedgerAdapter(vouchers),
		h.events,
		rollbackTx{participants: []interface{ snapshot() func() }{h.products}},
		noop.NewTracerProvider().Tracer("test"),
	)
}

func refillCart(h *harness) {
	h.carts.carts[7].Items = []domain.CartItem{
		{ProductID: 1, ProductName: "keyboard", Quantity: 2, TotalPrice: 300000},
		{ProductID: 2, ProductName: "mouse", Quantity: 1, TotalPrice: 200000},
	}
}

func TestCreateOrderThroughVoucherLedger(t *testing.T) {
	minOrder := 100000.0
	maxUsage := 100
	repo := newFakePromotionRepo(&promotion.Voucher{
		Code:          "SAVE10",
		DiscountType:  promotion.DiscountTypePercent,
		DiscountValue: 10,
		MinOrderValue: &minOrder,
		MaxUsage:      &maxUsage,
		CurrentUsage:  99, // 只剩最后一个额度
		IsActive:      true,
	})
	h := newHarness()
	withVoucherLedger(h, repo)

	order, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		FullName: "A", Address: "B", VoucherCodes: []string{"SAVE10"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// 拿走最后一个额度的订单也必须享受完整折扣
	if order.DiscountAmount != 50000 {
		t.Errorf("discount = %v, want 50000", order.DiscountAmount)
	}
	if order.FinalAmount != 450000 {
		t.Errorf("final amount = %v, want 450000", order.FinalAmount)
	}
	if len(order.Vouchers) != 1 || order.Vouchers[0].Discount != 50000 {
		t.Errorf("applied vouchers = %+v", order.Vouchers)
	}
	if got := repo.usage("SAVE10"); got != 100 {
		t.Errorf("usage = %d, want 100", got)
	}

	// 额度用尽后的下一单被拒绝，库存扣减随之回滚
	refillCart(h)
	_, err = h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		FullName: "A", Address: "B", VoucherCodes: []string{"SAVE10"},
	})
	if !errors.Is(err, promotion.ErrVoucherUsageExhausted) {
		t.Fatalf("err = %v, want ErrVoucherUsageExhausted", err)
	}
	if got := h.products.stock(1); got != 8 {
		t.Errorf("stock of product 1 = %d, want 8 after rollback", got)
	}
	if got := repo.usage("SAVE10"); got != 100 {
		t.Errorf("usage after rejected order = %d, want 100", got)
	}
}

func TestCreateOrderWithSingleUseVoucher(t *testing.T) {
	minOrder := 200000.0
	maxUsage := 1
	repo := newFakePromotionRepo(&promotion.Voucher{
		Code:          "MINIGAME-ABCD1234",
		DiscountType:  promotion.DiscountTypeFixed,
		DiscountValue: 50000,
		MinOrderValue: &minOrder,
		MaxUsage:      &maxUsage,
		IsActive:      true,
	})
	h := newHarness()
	withVoucherLedger(h, repo)

	// 一次性券在它唯一的一次核销上就要生效
	order, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		FullName: "A", Address: "B", VoucherCodes: []string{"MINIGAME-ABCD1234"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.DiscountAmount != 50000 || order.FinalAmount != 450000 {
		t.Errorf("discount/final = %v / %v, want 50000 / 450000", order.DiscountAmount, order.FinalAmount)
	}
	if got := repo.usage("MINIGAME-ABCD1234"); got != 1 {
		t.Errorf("usage = %d, want 1", got)
	}
}
