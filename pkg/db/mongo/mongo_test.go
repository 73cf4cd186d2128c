package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestObjectIDs_SkipsInvalidAndDuplicates(t *testing.T) {
	ids := ObjectIDs([]string{
		"65f0c0ffee0000000000000a",
		"not-an-id",
		"65f0c0ffee0000000000000a",
		"65f0c0ffee0000000000000b",
	})

	require.Len(t, ids, 2)
	assert.Equal(t, "65f0c0ffee0000000000000a", ids[0].Hex())
	assert.Equal(t, "65f0c0ffee0000000000000b", ids[1].Hex())
}

func TestTransactionsUnsupported(t *testing.T) {
	assert.True(t, transactionsUnsupported(mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}))
	assert.False(t, transactionsUnsupported(mongo.CommandError{Code: 11000}))
	assert.False(t, transactionsUnsupported(errors.New("boom")))
}

func TestNoopTransactionManager(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	var got any
	err := NoopTransactionManager{}.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		got = sessCtx.Value(key{})
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestIsNoDocuments(t *testing.T) {
	assert.True(t, IsNoDocuments(mongo.ErrNoDocuments))
	assert.False(t, IsNoDocuments(errors.New("other")))
}
