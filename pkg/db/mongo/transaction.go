package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error code returned when a transaction is attempted on a standalone mongod.
const illegalOperationCode = 20

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	log    *logger.Logger
}

func NewTransactionManager(client *mongo.Client, log *logger.Logger) TransactionManager {
	if log == nil {
		log = logger.Discard()
	}
	return &mongoTransactionManager{
		client: client,
		log:    log,
	}
}

// ExecuteTransaction runs fn inside a multi document transaction. Local
// development servers often run without a replica set; there fn is retried
// once inside a plain session so single document writes still go through.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	if err != nil && transactionsUnsupported(err) {
		m.log.Warn("MongoDB transactions unavailable, running without transaction")
		err = mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
			return fn(sessCtx)
		})
	}

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == illegalOperationCode
	}
	return false
}

// NoopTransactionManager runs fn directly. Tests backed by in-memory
// repositories use it in place of a real session.
type NoopTransactionManager struct{}

func (NoopTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return fn(noopSession{Context: ctx})
}

// noopSession satisfies mongo.SessionContext for code that never touches the session.
type noopSession struct {
	context.Context
	mongo.Session
}
