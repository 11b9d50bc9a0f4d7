package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-makerstock/internal/ledger"
)

func TestCompleteRejectsNilLineItemID(t *testing.T) {
	svc := NewBatchService(nil, nil, nil, nil)
	scope := ledger.Scope{OrgID: uuid.New(), ActorID: "tester"}

	_, err := svc.Complete(context.Background(), scope, uuid.New(), CompleteBatchRequest{
		Ingredients: []BatchLine{{Quantity: 5}}, // missing item id
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "uuid_required")
}

func TestCompleteRejectsEmptyRequest(t *testing.T) {
	svc := NewBatchService(nil, nil, nil, nil)
	scope := ledger.Scope{OrgID: uuid.New(), ActorID: "tester"}

	_, err := svc.Complete(context.Background(), scope, uuid.New(), CompleteBatchRequest{})
	assert.ErrorIs(t, err, ErrBatchEmpty)
}
