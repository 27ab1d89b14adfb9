package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct {
	Name string
}

func (c *pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type otherCommand struct{}

func (c *otherCommand) Validate() error { return nil }

func TestCommandBus_SendDispatchesByType(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(&pingCommand{}, Typed(func(ctx context.Context, cmd *pingCommand) (interface{}, error) {
		return "pong " + cmd.Name, nil
	})))

	result, err := b.Send(context.Background(), &pingCommand{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pong a", result)
}

func TestCommandBus_RejectsInvalidCommand(t *testing.T) {
	b := NewCommandBus()
	called := false
	require.NoError(t, b.Register(&pingCommand{}, Typed(func(ctx context.Context, cmd *pingCommand) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Send(context.Background(), &pingCommand{})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCommandBus_UnknownCommand(t *testing.T) {
	b := NewCommandBus()

	_, err := b.Send(context.Background(), &otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestCommandBus_DuplicateRegistration(t *testing.T) {
	b := NewCommandBus()
	h := Typed(func(ctx context.Context, cmd *pingCommand) (interface{}, error) { return nil, nil })

	require.NoError(t, b.Register(&pingCommand{}, h))
	assert.Error(t, b.Register(&pingCommand{}, h))
}

func TestTyped_WrongCommandType(t *testing.T) {
	h := Typed(func(ctx context.Context, cmd *pingCommand) (interface{}, error) { return nil, nil })

	_, err := h.Handle(context.Background(), &otherCommand{})
	assert.ErrorIs(t, err, ErrUnexpectedCommand)
}

func TestPipeline_AppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}

	handler := NewPipeline(tag("first"), tag("second"), LoggingMiddleware(zap.NewNop())).Execute(
		Typed(func(ctx context.Context, cmd *pingCommand) (interface{}, error) {
			order = append(order, "handler")
			return nil, nil
		}),
	)

	_, err := handler.Handle(context.Background(), &pingCommand{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
