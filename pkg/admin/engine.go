package admin

import (
	"fmt"

	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/types"
)

type ActionType string

const (
	ActionCapture          ActionType = "capture"
	ActionVoid             ActionType = "void"
	ActionRefund           ActionType = "refund"
	ActionBook             ActionType = "book"
	ActionInstalmentCancel ActionType = "instalment-cancel"
)

// ActionParams 管理动作的请求参数，控制器用cast宽松解析后填入
type ActionParams struct {
	RefundAmount int64
	Reason       string
	ManageStatus int
	BookAmount   int64
	CancelType   string
}

// ActionContext 单次管理动作的执行上下文
type ActionContext struct {
	Record *models.TransactionRecord
	Order  *types.OrderAggregate
	Params ActionParams
}

// Executor 管理动作执行器：先Validate前置条件，通过才Execute调网关
type Executor interface {
	GetType() ActionType
	Validate(ctx *ActionContext) error
	Execute(ctx *ActionContext) (*novalnet.Response, error)
}

// Engine 管理动作引擎
type Engine struct {
	executors map[ActionType]Executor
}

func NewEngine() *Engine {
	return &Engine{
		executors: make(map[ActionType]Executor),
	}
}

// Register 注册执行器
func (e *Engine) Register(executor Executor) {
	e.executors[executor.GetType()] = executor
}

// Execute 校验并执行动作。校验失败的错误由调用方映射为本地化失败载荷，
// 不会有网关调用发生。
func (e *Engine) Execute(actionType ActionType, ctx *ActionContext) (*novalnet.Response, error) {
	executor, exists := e.executors[actionType]
	if !exists {
		return nil, fmt.Errorf("executor for action type %s not found", actionType)
	}

	if err := executor.Validate(ctx); err != nil {
		return nil, err
	}

	return executor.Execute(ctx)
}

// GetRegisteredTypes 获取已注册的动作类型
func (e *Engine) GetRegisteredTypes() []ActionType {
	actionTypes := make([]ActionType, 0, len(e.executors))
	for actionType := range e.executors {
		actionTypes = append(actionTypes, actionType)
	}
	return actionTypes
}
