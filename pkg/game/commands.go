package game

import (
	"context"
	"fmt"

	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/queue"
)

// CommandRequest carries an operator command into the game loop.
type CommandRequest struct {
	Command playback.Command
	result  chan error
}

func NewCommandRequest(cmd playback.Command) *CommandRequest {
	return &CommandRequest{
		Command: cmd,
		result:  make(chan error, 1),
	}
}

func (r *CommandRequest) reply(err error) {
	if r.result == nil {
		return
	}
	r.result <- err
}

// Wait blocks until the game loop has executed the command.
func (r *CommandRequest) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-r.result:
		return err
	}
}

// SubmitCommand queues cmd for the game loop and waits for its outcome.
func SubmitCommand(ctx context.Context, q queue.Queue, cmd playback.Command) error {
	request := NewCommandRequest(cmd)
	if err := q.Enqueue(request); err != nil {
		return fmt.Errorf("failed to queue command %s: %w", cmd, err)
	}
	return request.Wait(ctx)
}
