// internal/service/promotion/application/service.go
package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"primeshop/internal/pkg/logger"
	"primeshop/internal/pkg/metrics"
	"primeshop/internal/service/promotion/domain"
)

// TxManager 在一个数据库事务内执行 fn。fn 返回错误时整个事务回滚。
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// VoucherService 是优惠券台账的应用服务。
// 核销（Redeem）是唯一会推进使用次数的入口。
type VoucherService struct {
	repo   domain.VoucherRepository
	rules  domain.RuleEngine
	txm    TxManager
	tracer trace.Tracer
	now    func() time.Time
}

// NewVoucherService 创建优惠券服务实例。
func NewVoucherService(repo domain.VoucherRepository, rules domain.RuleEngine, txm TxManager, tracer trace.Tracer) *VoucherService {
	return &VoucherService{
		repo:   repo,
		rules:  rules,
		txm:    txm,
		tracer: tracer,
		now:    time.Now,
	}
}

// RedeemedVoucher 是一次核销的结果：券本身与它贡献的折扣额。
// 折扣按核销时点的状态计算，发生在额度消耗之前，
// 消耗最后一个额度的核销同样拿到完整折扣。
type RedeemedVoucher struct {
	Voucher  *domain.Voucher
	Discount float64
}

// Redeem 对一批券码执行核销：全部成功则逐一原子加一使用次数并返回券与折扣，
// 任何一个券码失败则返回描述该券码的错误，整批不生效。
// 批次的原子性由外层事务保证：独立调用时本方法自己开启事务，
// 作为下单流程的一环被调用时（ctx 已在事务内）直接复用外层事务。
func (s *VoucherService) Redeem(ctx context.Context, codes []string, orderValue float64, fact domain.Fact) ([]RedeemedVoucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.Redeem")
	defer span.End()

	span.SetAttributes(
		attribute.Int("voucher.count", len(codes)),
		attribute.Float64("order.value", orderValue),
	)

	var redeemed []RedeemedVoucher
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		var err error
		redeemed, err = s.redeemAll(ctx, codes, orderValue, fact)
		return err
	})
	if err != nil {
		span.RecordError(err)
		metrics.VoucherRedemptions.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.VoucherRedemptions.WithLabelValues("accepted").Inc()
	return redeemed, nil
}

func (s *VoucherService) redeemAll(ctx context.Context, codes []string, orderValue float64, fact domain.Fact) ([]RedeemedVoucher, error) {
	now := s.now()
	redeemed := make([]RedeemedVoucher, 0, len(codes))

	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}

		voucher, err := s.checkOne(ctx, code, orderValue, fact, now)
		if err != nil {
			return nil, err
		}

		// 折扣必须在消耗额度之前计算：额度加一之后，
		// 刚好用完额度的券会被 DiscountFor 判为不可用而折成 0
		discount := voucher.DiscountFor(orderValue, now)

		// 条件自增在数据库端完成；返回 false 说明并发请求抢走了最后的额度
		ok, err := s.repo.RedeemOnce(ctx, voucher.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "redeem voucher %q", code)
		}
		if !ok {
			return nil, errors.Wrapf(domain.ErrVoucherUsageExhausted, "voucher %q", code)
		}

		voucher.CurrentUsage++
		redeemed = append(redeemed, RedeemedVoucher{Voucher: voucher, Discount: discount})

		logger.Ctx(ctx).Info().
			Str("code", code).
			Float64("discount", discount).
			Int("current_usage", voucher.CurrentUsage).
			Msg("voucher redeemed")
	}

	return redeemed, nil
}

// checkOne 逐项校验单个券码，失败时返回指明该券码的错误。
func (s *VoucherService) checkOne(ctx context.Context, code string, orderValue float64, fact domain.Fact, now time.Time) (*domain.Voucher, error) {
	voucher, err := s.repo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrVoucherNotFound) {
			return nil, errors.Wrapf(domain.ErrVoucherNotFound, "voucher %q", code)
		}
		return nil, errors.Wrapf(err, "find voucher %q", code)
	}

	switch {
	case voucher.IsExpired(now):
		return nil, errors.Wrapf(domain.ErrVoucherExpired, "voucher %q", code)
	case !voucher.HasRemainingUsage():
		return nil, errors.Wrapf(domain.ErrVoucherUsageExhausted, "voucher %q", code)
	case !voucher.IsValid(now):
		return nil, errors.Wrapf(domain.ErrVoucherInvalid, "voucher %q", code)
	case !voucher.MeetsMinOrderValue(orderValue):
		return nil, errors.Wrapf(domain.ErrVoucherMinOrderNotMet, "voucher %q requires order value >= %.0f", code, *voucher.MinOrderValue)
	}

	if voucher.ScopeRule != "" {
		ok, err := s.rules.Evaluate(voucher.ScopeRule, fact)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate scope rule of voucher %q", code)
		}
		if !ok {
			return nil, errors.Wrapf(domain.ErrVoucherNotApplicable, "voucher %q", code)
		}
	}

	return voucher, nil
}

// Check 只校验一批券码并返回对应的券，不消耗使用次数。
// 第一个失败的券码以带类型的错误返回，供调用方用 errors.Is 判别原因。
func (s *VoucherService) Check(ctx context.Context, codes []string, orderValue float64, fact domain.Fact) ([]*domain.Voucher, error) {
	now := s.now()
	valid := make([]*domain.Voucher, 0, len(codes))
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		voucher, err := s.checkOne(ctx, code, orderValue, fact, now)
		if err != nil {
			return nil, err
		}
		valid = append(valid, voucher)
	}
	return valid, nil
}

// Validate 校验一批券码并计算折扣总额，只读，不消耗使用次数。
func (s *VoucherService) Validate(ctx context.Context, codes []string, orderValue float64, fact domain.Fact) *ValidationResult {
	ctx, span := s.tracer.Start(ctx, "voucher.Validate")
	defer span.End()

	valid, err := s.Check(ctx, codes, orderValue, fact)
	if err != nil {
		span.RecordError(err)
		return &ValidationResult{Valid: false, Message: err.Error()}
	}

	okCodes := make([]string, len(valid))
	for i, v := range valid {
		okCodes[i] = v.Code
	}
	return &ValidationResult{
		Valid:          true,
		Message:        "all vouchers applicable",
		DiscountAmount: domain.TotalDiscount(valid, orderValue, s.now()),
		Codes:          okCodes,
	}
}

// TotalDiscount 计算一批已核销券对订单金额的总折扣（相加后封顶在订单金额）。
func (s *VoucherService) TotalDiscount(vouchers []*domain.Voucher, orderValue float64) float64 {
	return domain.TotalDiscount(vouchers, orderValue, s.now())
}

// Create 创建新券，管理端入口。
func (s *VoucherService) Create(ctx context.Context, req *CreateVoucherRequest) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.Create")
	defer span.End()

	if req.Code == "" {
		return nil, errors.New("voucher code is required")
	}
	if req.DiscountValue <= 0 {
		return nil, errors.New("discount value must be positive")
	}
	if req.MaxUsage != nil && *req.MaxUsage <= 0 {
		return nil, errors.New("max usage must be positive")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, errors.New("end date must be after start date")
	}

	if existing, err := s.repo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, errors.Wrapf(domain.ErrVoucherCodeTaken, "voucher %q", req.Code)
	} else if err != nil && !errors.Is(err, domain.ErrVoucherNotFound) {
		return nil, err
	}

	voucher := &domain.Voucher{
		Code:             req.Code,
		DiscountType:     domain.DiscountType(req.DiscountType),
		DiscountValue:    req.DiscountValue,
		MaxDiscountValue: req.MaxDiscountValue,
		MinOrderValue:    req.MinOrderValue,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MaxUsage:         req.MaxUsage,
		ScopeRule:        req.ScopeRule,
		IsActive:         true,
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return voucher, nil
}

// Deactivate 软删除：停用优惠券，历史订单上的引用保持不变。
func (s *VoucherService) Deactivate(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "voucher.Deactivate")
	defer span.End()

	voucher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	voucher.IsActive = false
	return s.repo.Save(ctx, voucher)
}

// ListActive 返回所有启用中的券。
func (s *VoucherService) ListActive(ctx context.Context) ([]*domain.Voucher, error) {
	return s.repo.FindActive(ctx)
}

// ListApplicable 返回对给定订单金额当前可用的券。
func (s *VoucherService) ListApplicable(ctx context.Context, orderValue float64) ([]*domain.Voucher, error) {
	all, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	applicable := make([]*domain.Voucher, 0, len(all))
	for _, v := range all {
		if v.CanApply(orderValue, now) {
			applicable = append(applicable, v)
		}
	}
	return applicable, nil
}

// CreateMinigameVoucher 为小游戏奖励生成一张一次性立减券。
func (s *VoucherService) CreateMinigameVoucher(ctx context.Context, userID int64) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.CreateMinigameVoucher")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	code := "MINIGAME-" + strings.ToUpper(uuid.New().String()[:8])
	minOrder := 200000.0
	maxUsage := 1
	start := s.now()
	end := start.AddDate(0, 0, 7)

	voucher := &domain.Voucher{
		Code:          code,
		DiscountType:  domain.DiscountTypeFixed,
		DiscountValue: 50000,
		MinOrderValue: &minOrder,
		StartDate:     &start,
		EndDate:       &end,
		MaxUsage:      &maxUsage,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("code", code).Int64("user_id", userID).Msg("minigame voucher issued")
	return voucher, nil
}

// ToResponse 将领域对象转换为对外视图。
func ToResponse(v *domain.Voucher) *VoucherResponse {
	return &VoucherResponse{
		ID:             v.ID,
		Code:           v.Code,
		DiscountType:   string(v.DiscountType),
		DiscountValue:  v.DiscountValue,
		MinOrderValue:  v.MinOrderValue,
		StartDate:      v.StartDate,
		EndDate:        v.EndDate,
		MaxUsage:       v.MaxUsage,
		CurrentUsage:   v.CurrentUsage,
		RemainingUsage: v.RemainingUsage(),
		IsActive:       v.IsActive,
	}
}
