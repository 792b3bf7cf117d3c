package admin

import (
	"github.com/flaboy/aira-pay/pkg/errors"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/types"
)

// refundExecutor 退款：网关调用前先按本地金额校验
type refundExecutor struct {
	helper *transactions.Helper
}

func (e *refundExecutor) GetType() ActionType { return ActionRefund }

func (e *refundExecutor) Validate(ctx *ActionContext) error {
	record := ctx.Record
	if record.RefundedAmount >= record.Amount {
		return errors.ErrAlreadyRefunded
	}
	req := ctx.Params.RefundAmount
	if req <= 0 || req > record.Amount-record.RefundedAmount {
		return errors.ErrInvalidRefundAmount
	}
	return nil
}

func (e *refundExecutor) Execute(ctx *ActionContext) (*novalnet.Response, error) {
	return e.helper.Refund(ctx.Record, ctx.Params.RefundAmount, ctx.Params.Reason)
}

// captureExecutor 捕获挂起交易，存在性校验在控制器完成
type captureExecutor struct {
	helper *transactions.Helper
}

func (e *captureExecutor) GetType() ActionType { return ActionCapture }

func (e *captureExecutor) Validate(ctx *ActionContext) error {
	if !types.IsOnHold(ctx.Record.GatewayStatus) {
		return errors.ErrTransactionNotOnHold
	}
	return nil
}

func (e *captureExecutor) Execute(ctx *ActionContext) (*novalnet.Response, error) {
	return e.helper.Capture(ctx.Record)
}

// voidExecutor 作废挂起交易
type voidExecutor struct {
	helper *transactions.Helper
}

func (e *voidExecutor) GetType() ActionType { return ActionVoid }

func (e *voidExecutor) Validate(ctx *ActionContext) error {
	if !types.IsOnHold(ctx.Record.GatewayStatus) {
		return errors.ErrTransactionNotOnHold
	}
	return nil
}

func (e *voidExecutor) Execute(ctx *ActionContext) (*novalnet.Response, error) {
	return e.helper.Void(ctx.Record)
}

// bookExecutor 追加记账
type bookExecutor struct {
	helper *transactions.Helper
}

func (e *bookExecutor) GetType() ActionType { return ActionBook }

func (e *bookExecutor) Validate(ctx *ActionContext) error {
	if ctx.Params.BookAmount <= 0 {
		return errors.ErrAmountNotBookable
	}
	return nil
}

func (e *bookExecutor) Execute(ctx *ActionContext) (*novalnet.Response, error) {
	return e.helper.Book(ctx.Record, ctx.Params.BookAmount)
}

// instalmentCancelExecutor 取消分期，cancelType缺失由控制器挡下
type instalmentCancelExecutor struct {
	helper *transactions.Helper
}

func (e *instalmentCancelExecutor) GetType() ActionType { return ActionInstalmentCancel }

func (e *instalmentCancelExecutor) Validate(ctx *ActionContext) error {
	if ctx.Params.CancelType == "" {
		return errors.ErrCancelTypeMissing
	}
	return nil
}

func (e *instalmentCancelExecutor) Execute(ctx *ActionContext) (*novalnet.Response, error) {
	return e.helper.InstalmentCancel(ctx.Record, ctx.Params.CancelType)
}

// buildEngine 注册全部管理动作
func buildEngine(helper *transactions.Helper) *Engine {
	engine := NewEngine()
	engine.Register(&refundExecutor{helper: helper})
	engine.Register(&captureExecutor{helper: helper})
	engine.Register(&voidExecutor{helper: helper})
	engine.Register(&bookExecutor{helper: helper})
	engine.Register(&instalmentCancelExecutor{helper: helper})
	return engine
}
