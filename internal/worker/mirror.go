package worker

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// LedgerWriter keeps an external one-row-per-transaction ledger.
type LedgerWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) error
	ReplaceTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// TransactionLister is the read side used by the startup resync.
type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// LedgerMirror applies transaction change events to a LedgerWriter.
type LedgerMirror struct {
	ledger LedgerWriter
	logger *log.Logger
}

func NewLedgerMirror(ledger LedgerWriter, logger *log.Logger) *LedgerMirror {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &LedgerMirror{ledger: ledger, logger: logger}
}

// Handle processes a single change message. Messages for other record kinds
// are acknowledged without action.
func (m *LedgerMirror) Handle(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Kind != amqp.KindTransaction {
		m.logger.DebugContext(ctx, "Ignoring change message",
			log.FieldKind, msg.Kind,
			log.FieldOperation, msg.Op,
			log.FieldID, msg.ID)
		return nil
	}

	var err error
	switch msg.Op {
	case amqp.OpCreated, amqp.OpUpdated:
		var t core.Transaction
		if err := msg.DecodePayload(&t); err != nil {
			// A malformed payload will never succeed; drop it.
			m.logger.ErrorContext(ctx, "Dropping transaction message with bad payload",
				log.FieldID, msg.ID,
				log.FieldError, err)
			return nil
		}
		if msg.Op == amqp.OpCreated {
			err = m.ledger.AppendTransaction(ctx, t)
		} else {
			err = m.ledger.ReplaceTransaction(ctx, t)
		}
	case amqp.OpDeleted:
		err = m.ledger.DeleteTransaction(ctx, msg.ID)
	default:
		// Redelivery cannot teach this build a new op; drop it.
		m.logger.ErrorContext(ctx, "Dropping transaction message with unknown op",
			log.FieldOperation, msg.Op,
			log.FieldID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s transaction %s: %w", msg.Op, msg.ID, err)
	}

	m.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldOperation, msg.Op,
		log.FieldID, msg.ID)
	return nil
}

// Resync replaces every stored transaction in the ledger. It recovers rows
// for events missed while the worker was down and reports how many failed.
func (m *LedgerMirror) Resync(ctx context.Context, source TransactionLister) (synced, failed int, err error) {
	txs, err := source.ListTransactions(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list transactions: %w", err)
	}
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := m.ledger.ReplaceTransaction(ctx, t); err != nil {
			m.logger.ErrorContext(ctx, "Failed to resync transaction",
				log.FieldID, t.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	m.logger.InfoContext(ctx, "Ledger resync completed",
		log.FieldCount, synced,
		"failed", failed)
	return synced, failed, nil
}
