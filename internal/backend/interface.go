package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/gateway"
	"budget/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the gateway, the optional change publisher and
// a cleanup function releasing both.
type BackendResult struct {
	Gateway gateway.Gateway
	AMQP    *amqp.Client // nil when publishing is disabled
	Cleanup CleanupFunc
}

// StoreOptions wires the publisher and cleanup into a BudgetStore.
func (r *BackendResult) StoreOptions() []services.Option {
	var opts []services.Option
	if r.AMQP != nil {
		opts = append(opts, services.WithPublisher(r.AMQP))
	}
	if r.Cleanup != nil {
		opts = append(opts, services.WithCloser(r.Cleanup))
	}
	return opts
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Change publishing, optional for both backends
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
