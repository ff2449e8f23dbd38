// internal/service/order/domain/order_test.go
package domain

import (
	"errors"
	"testing"
)

func sampleItems() []OrderItem {
	return []OrderItem{
		{ProductID: 1, ProductName: "keyboard", Quantity: 2, TotalPrice: 300000},
		{ProductID: 2, ProductName: "mouse", Quantity: 1, TotalPrice: 200000},
	}
}

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(7, sampleItems(), ShippingInfo{FullName: "A", Address: "B"}, nil, 500000, 50000)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != StatusPending {
		t.Errorf("new order status = %s, want PENDING", order.Status)
	}
	if order.FinalAmount != 450000 {
		t.Errorf("final amount = %v, want 450000", order.FinalAmount)
	}
}

func TestNewOrderEmptyItems(t *testing.T) {
	_, err := NewOrder(7, nil, ShippingInfo{}, nil, 0, 0)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestNewOrderDiscountExceedsTotal(t *testing.T) {
	// 折扣超过总额时实付金额为 0，不会为负
	order, err := NewOrder(7, sampleItems(), ShippingInfo{}, nil, 500000, 600000)
	if err != nil {
		t.Fatal(err)
	}
	if order.FinalAmount != 0 {
		t.Errorf("final amount = %v, want 0", order.FinalAmount)
	}
}

func TestTransitionTo(t *testing.T) {
	order, _ := NewOrder(7, sampleItems(), ShippingInfo{}, nil, 500000, 0)

	for _, next := range []Status{StatusConfirmed, StatusPaid, StatusProcessing} {
		if err := order.TransitionTo(next); err != nil {
			t.Fatalf("TransitionTo(%s): %v", next, err)
		}
		if order.Status != next {
			t.Fatalf("status = %s, want %s", order.Status, next)
		}
	}
}

func TestTransitionToInvalid(t *testing.T) {
	order, _ := NewOrder(7, sampleItems(), ShippingInfo{}, nil, 500000, 0)
	order.Status = StatusShipped

	err := order.TransitionTo(StatusProcessing)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != StatusShipped || invalid.To != StatusProcessing {
		t.Errorf("error fields = %s -> %s", invalid.From, invalid.To)
	}
	// 非法流转不改变状态
	if order.Status != StatusShipped {
		t.Errorf("status changed to %s after rejected transition", order.Status)
	}
}

func TestPaymentFailedRecovery(t *testing.T) {
	order, _ := NewOrder(7, sampleItems(), ShippingInfo{}, nil, 500000, 0)
	order.Status = StatusConfirmed

	if err := order.TransitionTo(StatusPaymentFailed); err != nil {
		t.Fatal(err)
	}
	// 支付失败后可以重试支付
	if err := order.TransitionTo(StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := order.TransitionTo(StatusPaid); err != nil {
		t.Fatal(err)
	}
}
