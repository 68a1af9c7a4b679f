// Package service provides the process-lifetime controller for the agent's
// periodic loops. Every ticker (heartbeat, trigger poller, notification feed,
// control API) is a Service owned by one Manager so that teardown is
// deterministic.
package service

import (
	"context"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// Service is a long-running component that can be started and stopped.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Name() string
}

// ServiceBase provides a base implementation for services.
type ServiceBase struct {
	name   string
	logger *logger.Logger
	status *ServiceStatus
}

// NewServiceBase creates a new service base.
func NewServiceBase(name string, log *logger.Logger) *ServiceBase {
	return &ServiceBase{
		name:   name,
		logger: log,
		status: NewServiceStatus(name),
	}
}

// Name returns the service name.
func (sb *ServiceBase) Name() string {
	return sb.name
}

// GetStatus returns the service status tracker.
func (sb *ServiceBase) GetStatus() *ServiceStatus {
	return sb.status
}

// LogInfo logs an info message tagged with the service name.
func (sb *ServiceBase) LogInfo(msg string, fields ...interface{}) {
	sb.logger.Info(msg, append([]interface{}{"service", sb.name}, fields...)...)
}

// LogWarn logs a warning message tagged with the service name.
func (sb *ServiceBase) LogWarn(msg string, fields ...interface{}) {
	sb.logger.Warn(msg, append([]interface{}{"service", sb.name}, fields...)...)
}

// LogError logs an error message tagged with the service name.
func (sb *ServiceBase) LogError(msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"service", sb.name, "error", err}, fields...)
	sb.logger.Error(msg, allFields...)
}

// LogDebug logs a debug message tagged with the service name.
func (sb *ServiceBase) LogDebug(msg string, fields ...interface{}) {
	sb.logger.Debug(msg, append([]interface{}{"service", sb.name}, fields...)...)
}
