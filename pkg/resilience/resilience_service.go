package resilience

import (
	"context"

	"go.uber.org/zap"

	"ainotes/pkg/logger"
)

// ServiceResilience объединяет Circuit Breaker и повторные попытки для одного внешнего сервиса.
type ServiceResilience struct {
	serviceName    string
	circuitBreaker *CircuitBreaker
	retry          *Retry
}

// NewServiceResilience создает обертку с настройками по умолчанию.
func NewServiceResilience(serviceName string) *ServiceResilience {
	return NewServiceResilienceWithConfig(serviceName, DefaultCircuitBreakerConfig(), DefaultRetryConfig())
}

// NewServiceResilienceWithConfig создает обертку с явными настройками.
func NewServiceResilienceWithConfig(serviceName string, cb CircuitBreakerConfig, retry RetryConfig) *ServiceResilience {
	return &ServiceResilience{
		serviceName:    serviceName,
		circuitBreaker: NewCircuitBreaker(serviceName, cb),
		retry:          NewRetry(serviceName, retry),
	}
}

// Execute выполняет операцию: повторы внутри, Circuit Breaker снаружи.
func (r *ServiceResilience) Execute(ctx context.Context, operationName string, operation func() error) error {
	logger.Log(ctx).Debug(ctx, "executing operation with resilience",
		zap.String("service", r.serviceName),
		zap.String("operation", operationName))

	return r.circuitBreaker.Execute(ctx, func() error {
		return r.retry.Execute(ctx, operation)
	})
}

// State возвращает состояние Circuit Breaker.
func (r *ServiceResilience) State() CircuitState {
	return r.circuitBreaker.State()
}

// ExecuteWithResult выполняет операцию, возвращающую значение, с отказоустойчивостью.
func ExecuteWithResult[T any](ctx context.Context, r *ServiceResilience, operationName string, operation func() (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, operationName, func() error {
		value, err := operation()
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
