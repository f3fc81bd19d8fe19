package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Submission, error)

// Connection is the algo's side of the engine's stdio pipe.
type Connection struct {
	r        *Reader
	w        io.Writer
	wmu      sync.Mutex
	handlers map[string]Handler
}

func NewConnection(r io.Reader, w io.Writer, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		r:        NewReader(r),
		w:        w,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Submit writes the build stack and then the deploy stack. The engine
// reads exactly two lines per turn, so both are always written.
func (c *Connection) Submit(s Submission) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := WriteCommands(c.w, s.Build); err != nil {
		return fmt.Errorf("submit build: %w", err)
	}
	if err := WriteCommands(c.w, s.Deploy); err != nil {
		return fmt.Errorf("submit deploy: %w", err)
	}
	return nil
}

// ReadLoop blocks until the engine closes the pipe, the game ends or ctx
// is cancelled. Handler failures are logged and never end the loop; a turn
// whose handler fails still gets an empty submission so the engine does
// not stall.
func (c *Connection) ReadLoop(ctx context.Context) error {
	type result struct {
		env Envelope
		err error
	}
	lines := make(chan result)
	go func() {
		defer close(lines)
		for {
			env, err := c.r.ReadEnvelope()
			select {
			case lines <- result{env, err}:
			case <-ctx.Done():
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
		}
	}()

	for {
		var res result
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok = <-lines:
			if !ok {
				return ctx.Err()
			}
		}
		if errors.Is(res.err, io.EOF) {
			slog.Info("engine closed the stream")
			return nil
		}
		if res.err != nil {
			if errors.Is(res.err, ErrUnknownFrame) {
				slog.Warn("skipping frame", "error", res.err)
				continue
			}
			return res.err
		}

		env := res.env
		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Debug("no handler for frame type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			slog.Error("handler error", "type", env.Type, "error", err)
			if env.Type == TypeTurn {
				resp = &Submission{}
			}
		}
		if resp != nil {
			if err := c.Submit(*resp); err != nil {
				slog.Error("failed to submit turn", "error", err)
				return err
			}
			slog.Debug("submitted turn", "build", len(resp.Build), "deploy", len(resp.Deploy))
		}
		if env.Type == TypeEndGame {
			return nil
		}
	}
}
