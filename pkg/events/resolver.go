package events

import "github.com/flaboy/aira-pay/pkg/types"

// OrderResolver 宿主系统提供的订单只读查询
type OrderResolver interface {
	ResolveOrder(orderNo string) (*types.OrderAggregate, error)
}

var orderResolver OrderResolver

func SetOrderResolver(r OrderResolver) {
	orderResolver = r
}

// HasOrderResolver 宿主是否注册了订单解析器
func HasOrderResolver() bool {
	return orderResolver != nil
}

// ResolveOrder 查宿主订单聚合，无解析器或未命中返回nil
func ResolveOrder(orderNo string) (*types.OrderAggregate, error) {
	if orderResolver == nil {
		return nil, nil
	}
	return orderResolver.ResolveOrder(orderNo)
}
