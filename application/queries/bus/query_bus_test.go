package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct {
	ID string
}

func (q *lookupQuery) Validate() error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

type countQuery struct{}

func (q *countQuery) Validate() error { return nil }

func TestQueryBus_Ask(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(&lookupQuery{}, Typed(func(ctx context.Context, q *lookupQuery) (interface{}, error) {
		return map[string]string{"id": q.ID}, nil
	})))

	tests := []struct {
		name    string
		query   Query
		want    interface{}
		wantErr error
	}{
		{name: "registered", query: &lookupQuery{ID: "doc-1"}, want: map[string]string{"id": "doc-1"}},
		{name: "invalid", query: &lookupQuery{}},
		{name: "unregistered", query: &countQuery{}, wantErr: ErrHandlerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Ask(context.Background(), tt.query)
			if tt.want == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryBus_RejectsSecondHandler(t *testing.T) {
	b := NewQueryBus()
	h := Typed(func(ctx context.Context, q *countQuery) (interface{}, error) { return 0, nil })

	require.NoError(t, b.Register(&countQuery{}, h))
	assert.Error(t, b.Register(&countQuery{}, h))
}

func TestTyped_WrongQueryType(t *testing.T) {
	h := Typed(func(ctx context.Context, q *countQuery) (interface{}, error) { return 0, nil })

	_, err := h.Handle(context.Background(), &lookupQuery{ID: "x"})
	assert.ErrorIs(t, err, ErrUnexpectedQuery)
}
