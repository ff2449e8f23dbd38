// internal/service/order/application/service_test.go
package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace/noop"

	"primeshop/internal/service/order/domain"
	promotion "primeshop/internal/service/promotion/domain"
)

// ---- 内存版仓储与端口 ----

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*domain.Order), nextID: 1}
}

func (r *fakeOrderRepo) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByStatusIn(_ context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		for _, s := range statuses {
			if o.Status == s {
				clone := *o
				out = append(out, &clone)
			}
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (r *fakeOrderRepo) UpdateEstimatedDelivery(_ context.Context, id int64, estimated time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.EstimatedDeliveryDate = &estimated
	return nil
}

func (r *fakeOrderRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepo) TotalPurchaseByUser(_ context.Context, userID int64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0.0
	for _, o := range r.orders {
		if o.UserID == userID && o.Status == domain.StatusDelivered {
			total += o.FinalAmount
		}
	}
	return total, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeProductRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, productID int64, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	p.Sold += quantity
	return true, nil
}

func (r *fakeProductRepo) Restock(_ context.Context, productID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += quantity
	p.Sold -= quantity
	return nil
}

func (r *fakeProductRepo) stock(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func (r *fakeProductRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[int64]domain.Product, len(r.products))
	for id, p := range r.products {
		saved[id] = *p
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for id, p := range saved {
			clone := p
			r.products[id] = &clone
		}
	}
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[int64]*domain.Cart // 以 UserID 为键
}

func newFakeCartRepo(carts ...*domain.Cart) *fakeCartRepo {
	repo := &fakeCartRepo{carts: make(map[int64]*domain.Cart)}
	for _, c := range carts {
		repo.carts[c.UserID] = c
	}
	return repo
}

func (r *fakeCartRepo) FindByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	clone := *cart
	return &clone, nil
}

func (r *fakeCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[cart.UserID]
	if !ok {
		return domain.ErrCartNotFound
	}
	stored.VoucherCodes = cart.VoucherCodes
	stored.DiscountAmount = cart.DiscountAmount
	return nil
}

func (r *fakeCartRepo) Clear(_ context.Context, cartID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cart := range r.carts {
		if cart.ID == cartID {
			cart.Items = nil
			cart.VoucherCodes = nil
			cart.DiscountAmount = 0
			return nil
		}
	}
	return domain.ErrCartNotFound
}

type fakeRedeemer struct {
	applied []domain.AppliedVoucher
	err     error
	calls   [][]string
}

func (f *fakeRedeemer) Redeem(_ context.Context, codes []string, _ float64, _ domain.RedemptionFact) ([]domain.AppliedVoucher, error) {
	f.calls = append(f.calls, codes)
	if f.err != nil {
		return nil, f.err
	}
	return f.applied, nil
}

func (f *fakeRedeemer) ValidateOnly(_ context.Context, codes []string, _ float64, _ domain.RedemptionFact) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	total := 0.0
	for _, v := range f.applied {
		total += v.Discount
	}
	return total, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*domain.OrderStatusChanged
}

func (f *fakeEvents) PublishStatusChanged(_ context.Context, event *domain.OrderStatusChanged) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// rollbackTx 在 fn 失败时恢复各仓储的快照，模拟数据库事务回滚。
type rollbackTx struct {
	participants []interface{ snapshot() func() }
}

func (m rollbackTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var restores []func()
	for _, p := range m.participants {
		restores = append(restores, p.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// ---- 测试装配 ----

type harness struct {
	orders   *fakeOrderRepo
	products *fakeProductRepo
	carts    *fakeCartRepo
	redeemer *fakeRedeemer
	events   *fakeEvents
	service  *OrderApplicationService
}

func newHarness() *harness {
	products := newFakeProductRepo(
		&domain.Product{ID: 1, Name: "keyboard", CategoryID: 3, Price: 150000, Stock: 10},
		&domain.Product{ID: 2, Name: "mouse", CategoryID: 3, Price: 200000, Stock: 1},
	)
	carts := newFakeCartRepo(&domain.Cart{
		ID:     5,
		UserID: 7,
		Items: []domain.CartItem{
			{ProductID: 1, ProductName: "keyboard", Quantity: 2, TotalPrice: 300000},
			{ProductID: 2, ProductName: "mouse", Quantity: 1, TotalPrice: 200000},
		},
	})
	orders := newFakeOrderRepo()
	redeemer := &fakeRedeemer{}
	events := &fakeEvents{}

	h := &harness{orders: orders, products: products, carts: carts, redeemer: redeemer, events: events}
	h.service = NewOrderApplicationService(
		orders, carts, products,
		NewInventoryReserver(products),
		redeemer, events,
		rollbackTx{participants: []interface{ snapshot() func() }{products}},
		noop.NewTracerProvider().Tracer("test"),
	)
	return h
}

func TestCreateOrder(t *testing.T) {
	h := newHarness()

	order, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		FullName: "Nguyen Van A", Address: "1 Main St",
	})
	if err != nil {
		t.Fatal(err)
	}

	if order.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", order.Status)
	}
	if order.TotalAmount != 500000 || order.FinalAmount != 500000 {
		t.Errorf("amounts = %v / %v, want 500000 / 500000", order.TotalAmount, order.FinalAmount)
	}

	// 库存已扣减
	if got := h.products.stock(1); got != 8 {
		t.Errorf("stock of product 1 = %d, want 8", got)
	}
	if got := h.products.stock(2); got != 0 {
		t.Errorf("stock of product 2 = %d, want 0", got)
	}

	// 购物车已清空
	cart, _ := h.carts.FindByUser(context.Background(), 7)
	if !cart.IsEmpty() {
		t.Error("cart should be empty after order creation")
	}
}

func TestCreateOrderWithVouchers(t *testing.T) {
	h := newHarness()
	h.redeemer.applied = []domain.AppliedVoucher{
		{VoucherID: 1, Code: "SAVE10", Discount: 50000},
	}

	order, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		FullName: "A", Address: "B", VoucherCodes: []string{"SAVE10"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.DiscountAmount != 50000 || order.FinalAmount != 450000 {
		t.Errorf("discount/final = %v / %v, want 50000 / 450000", order.DiscountAmount, order.FinalAmount)
	}
	if len(order.Vouchers) != 1 || order.Vouchers[0].Code != "SAVE10" {
		t.Errorf("vouchers = %+v", order.Vouchers)
	}
}

func TestCreateOrderUsesCartVoucherCodes(t *testing.T) {
	h := newHarness()
	h.carts.carts[7].VoucherCodes = []string{"CARTCODE"}
	h.redeemer.applied = []domain.AppliedVoucher{{VoucherID: 2, Code: "CARTCODE", Discount: 10000}}

	if _, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"}); err != nil {
		t.Fatal(err)
	}
	if len(h.redeemer.calls) != 1 || h.redeemer.calls[0][0] != "CARTCODE" {
		t.Errorf("redeemer calls = %+v, want cart codes", h.redeemer.calls)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	h := newHarness()
	h.carts.carts[7].Items = nil

	_, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestCreateOrderOutOfStock(t *testing.T) {
	h := newHarness()
	h.carts.carts[7].Items[1].Quantity = 5 // mouse 只剩 1 件

	_, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{})
	var oos *domain.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("err = %v, want OutOfStockError", err)
	}
	if oos.ProductID != 2 || oos.Available != 1 {
		t.Errorf("error fields = %+v", oos)
	}

	// 第一个商品的扣减随事务回滚
	if got := h.products.stock(1); got != 10 {
		t.Errorf("stock of product 1 = %d, want 10 after rollback", got)
	}
}

func TestCreateOrderVoucherFailureRollsBackStock(t *testing.T) {
	h := newHarness()
	h.redeemer.err = errors.Wrap(promotion.ErrVoucherUsageExhausted, `voucher "GONE"`)

	_, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		VoucherCodes: []string{"GONE"},
	})
	if !errors.Is(err, promotion.ErrVoucherUsageExhausted) {
		t.Fatalf("err = %v, want ErrVoucherUsageExhausted", err)
	}

	// 券核销失败时库存扣减一并撤销，订单与购物车不受影响
	if got := h.products.stock(1); got != 10 {
		t.Errorf("stock of product 1 = %d, want 10 after rollback", got)
	}
	if count, _ := h.orders.Count(context.Background()); count != 0 {
		t.Errorf("orders persisted = %d, want 0", count)
	}
	cart, _ := h.carts.FindByUser(context.Background(), 7)
	if cart.IsEmpty() {
		t.Error("cart should be untouched after failed order")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newHarness()
	order, err := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := h.service.UpdateOrderStatus(context.Background(), order.ID, domain.StatusConfirmed)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", updated.Status)
	}

	// 流转事件已发布
	if len(h.events.events) != 1 {
		t.Fatalf("events published = %d, want 1", len(h.events.events))
	}
	event := h.events.events[0]
	if event.From != string(domain.StatusPending) || event.To != string(domain.StatusConfirmed) {
		t.Errorf("event = %+v", event)
	}
}

func TestUpdateOrderStatusInvalid(t *testing.T) {
	h := newHarness()
	order, _ := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"})

	_, err := h.service.UpdateOrderStatus(context.Background(), order.ID, domain.StatusShipping)
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}

	// 拒绝的流转不发布事件，状态保持原样
	if len(h.events.events) != 0 {
		t.Errorf("events published = %d, want 0", len(h.events.events))
	}
	stored, _ := h.orders.FindByID(context.Background(), order.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", stored.Status)
	}
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	h := newHarness()
	_, err := h.service.UpdateOrderStatus(context.Background(), 999, domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestCancelRestocksItems(t *testing.T) {
	h := newHarness()
	order, _ := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"})

	if got := h.products.stock(1); got != 8 {
		t.Fatalf("stock before cancel = %d, want 8", got)
	}

	if _, err := h.service.UpdateOrderStatus(context.Background(), order.ID, domain.StatusCancelled); err != nil {
		t.Fatal(err)
	}

	// 取消后库存回补
	if got := h.products.stock(1); got != 10 {
		t.Errorf("stock of product 1 = %d, want 10", got)
	}
	if got := h.products.stock(2); got != 1 {
		t.Errorf("stock of product 2 = %d, want 1", got)
	}
}

func TestSetEstimatedDelivery(t *testing.T) {
	h := newHarness()
	order, _ := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"})

	estimated := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	updated, err := h.service.SetEstimatedDelivery(context.Background(), order.ID, estimated)
	if err != nil {
		t.Fatal(err)
	}
	if updated.EstimatedDeliveryDate == nil || !updated.EstimatedDeliveryDate.Equal(estimated) {
		t.Errorf("estimated delivery = %v, want %v", updated.EstimatedDeliveryDate, estimated)
	}
}

func TestApplyVouchersToCart(t *testing.T) {
	h := newHarness()
	h.redeemer.applied = []domain.AppliedVoucher{{Code: "SAVE10", Discount: 50000}}

	cart, err := h.service.ApplyVouchersToCart(context.Background(), 7, []string{"SAVE10"})
	if err != nil {
		t.Fatal(err)
	}
	if cart.DiscountAmount != 50000 {
		t.Errorf("discount = %v, want 50000", cart.DiscountAmount)
	}

	stored, _ := h.carts.FindByUser(context.Background(), 7)
	if len(stored.VoucherCodes) != 1 || stored.VoucherCodes[0] != "SAVE10" {
		t.Errorf("stored codes = %v", stored.VoucherCodes)
	}
}

func TestApplyVouchersToCartRejected(t *testing.T) {
	h := newHarness()
	h.redeemer.err = errors.Wrap(promotion.ErrVoucherMinOrderNotMet, `voucher "BIG"`)

	_, err := h.service.ApplyVouchersToCart(context.Background(), 7, []string{"BIG"})
	if !errors.Is(err, promotion.ErrVoucherMinOrderNotMet) {
		t.Fatalf("err = %v, want ErrVoucherMinOrderNotMet", err)
	}

	// 失败时购物车不被改写
	stored, _ := h.carts.FindByUser(context.Background(), 7)
	if len(stored.VoucherCodes) != 0 {
		t.Errorf("stored codes = %v, want none", stored.VoucherCodes)
	}
}

func TestRemoveVouchersFromCart(t *testing.T) {
	h := newHarness()
	h.carts.carts[7].VoucherCodes = []string{"SAVE10"}
	h.carts.carts[7].DiscountAmount = 50000

	cart, err := h.service.RemoveVouchersFromCart(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.VoucherCodes) != 0 || cart.DiscountAmount != 0 {
		t.Errorf("cart = %+v", cart)
	}
}

func TestTotalPurchaseByUser(t *testing.T) {
	h := newHarness()
	order, _ := h.service.CreateOrder(context.Background(), 7, &CreateOrderRequest{FullName: "A", Address: "B"})

	// 只统计已签收订单
	total, _ := h.service.TotalPurchaseByUser(context.Background(), 7)
	if total != 0 {
		t.Errorf("total before delivery = %v, want 0", total)
	}

	for _, next := range []domain.Status{
		domain.StatusConfirmed, domain.StatusPaid, domain.StatusProcessing,
		domain.StatusInventory, domain.StatusReadyToShip, domain.StatusShipping,
		domain.StatusShipped, domain.StatusDelivered,
	} {
		if _, err := h.service.UpdateOrderStatus(context.Background(), order.ID, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	total, _ = h.service.TotalPurchaseByUser(context.Background(), 7)
	if total != 500000 {
		t.Errorf("total = %v, want 500000", total)
	}
}
