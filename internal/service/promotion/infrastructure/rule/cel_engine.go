// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"primeshop/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 CEL 实现。
// 券上配置的适用范围规则是一个返回 bool 的 CEL 表达式，
// 例如: orderValue >= 100000.0 && productIds.exists(p, p in [1, 2, 3])
// 这是一个典型的适配器，把第三方表达式引擎适配到领域接口上。
type CELRuleEngine struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program // 按表达式文本缓存编译结果
}

// NewCELRuleEngine 创建规则引擎实例并声明事实变量。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("orderValue", cel.DoubleType),
		cel.Variable("productIds", cel.ListType(cel.IntType)),
		cel.Variable("categoryIds", cel.ListType(cel.IntType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel environment")
	}
	return &CELRuleEngine{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Evaluate 实现 domain.RuleEngine。
func (e *CELRuleEngine) Evaluate(ruleExpr string, fact domain.Fact) (bool, error) {
	prg, err := e.program(ruleExpr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"orderValue":  fact.OrderValue,
		"productIds":  fact.ProductIDs,
		"categoryIds": fact.CategoryIDs,
	})
	if err != nil {
		return false, errors.Wrap(err, "evaluate scope rule")
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("scope rule must evaluate to bool, got %T", out.Value())
	}
	return result, nil
}

func (e *CELRuleEngine) program(ruleExpr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.cache[ruleExpr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(ruleExpr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "compile scope rule")
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "build scope rule program")
	}

	e.mu.Lock()
	e.cache[ruleExpr] = prg
	e.mu.Unlock()
	return prg, nil
}
