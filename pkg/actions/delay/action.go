// Package delay implements the delay action: suspends the current execution
// for a configured duration. Only this execution waits; the timer respects
// context cancellation so a shutting-down worker is not pinned.
package delay

import (
	"context"
	"log/slog"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

const schema = `{
	"type": "object",
	"required": ["durationMs"],
	"properties": {
		"durationMs": {"type": "number", "minimum": 1}
	}
}`

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() models.ActionType {
	return models.ActionDelay
}

func (*Factory) Schema() string {
	return schema
}

func (*Factory) Create(config map[string]any) (protocol.Action, error) {
	durationMs, ok := config["durationMs"].(float64)
	if !ok {
		if n, isInt := config["durationMs"].(int); isInt {
			durationMs, ok = float64(n), true
		}
	}

	if !ok || durationMs <= 0 {
		return nil, protocol.NewActionError(models.ActionDelay, "durationMs must be a positive number", nil)
	}

	return &Action{duration: time.Duration(durationMs) * time.Millisecond}, nil
}

type Action struct {
	duration time.Duration
}

func (a *Action) Execute(ctx context.Context, _ string, logger *slog.Logger) (any, error) {
	logger.Info("Delaying execution", "duration", a.duration)

	timer := time.NewTimer(a.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, protocol.NewActionError(models.ActionDelay, "delay interrupted", ctx.Err())
	case <-timer.C:
	}

	return map[string]any{
		"delayed":     true,
		"duration_ms": a.duration.Milliseconds(),
	}, nil
}
