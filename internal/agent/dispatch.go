package agent

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/telegrambis/internal/action"
	"github.com/pfrederiksen/telegrambis/internal/config"
	"github.com/pfrederiksen/telegrambis/internal/logger"
	"github.com/pfrederiksen/telegrambis/internal/metrics"
	"github.com/pfrederiksen/telegrambis/internal/telegram"
)

// dispatch performs the action selected by opts. An unknown type is logged and
// is not an error.
func (a *Agent) dispatch(ctx context.Context, opts config.Options) error {
	cfg, err := config.Parse(opts)
	if err != nil {
		return fmt.Errorf("parsing options: %w", err)
	}

	if !cfg.Type.Valid() {
		a.log.Error(fmt.Sprintf("Error: type has an invalid value (%s)", cfg.Type), logger.Fields{
			"agent": a.name,
		}, nil)
		a.metrics.Dispatch(metrics.InvalidAction, metrics.OutcomeRejected)
		return nil
	}

	method := cfg.Type.Method()
	client, err := telegram.NewClient(cfg.Token, a.clientOpts...)
	if err != nil {
		a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeFailed)
		return fmt.Errorf("%s: %w", method, err)
	}

	start := a.now()
	resp, err := call(ctx, client, cfg)
	if err != nil {
		a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeFailed)
		return fmt.Errorf("%s: %w", method, err)
	}
	a.metrics.Request(method, resp.StatusCode, a.now().Sub(start))

	a.logResponse(cfg, resp)

	payload, err := resp.Payload()
	if err != nil {
		a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeFailed)
		return err
	}
	if !payload.OK() {
		a.log.Error(fmt.Sprintf("%s refused: %s", method, payload.Description()), logger.Fields{
			"agent":  a.name,
			"status": resp.StatusCode,
		}, nil)
	}

	if !cfg.EmitEvents {
		a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeSilent)
		return nil
	}

	payload["action"] = method
	payload["chat_id"] = cfg.ChatID
	if cfg.Type.NeedsMessageID() {
		payload["message_id"] = cfg.MessageID
	}

	if err := a.events.Emit(ctx, payload); err != nil {
		a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeFailed)
		return fmt.Errorf("emitting event: %w", err)
	}
	a.metrics.Dispatch(string(cfg.Type), metrics.OutcomeEmitted)
	return nil
}

func call(ctx context.Context, client *telegram.Client, cfg config.Config) (*telegram.Response, error) {
	ref := telegram.MessageRef{ChatID: cfg.ChatID, MessageID: cfg.MessageID}

	switch cfg.Type {
	case action.PinChatMessage:
		return client.PinChatMessage(ctx, ref)
	case action.UnpinChatMessage:
		return client.UnpinChatMessage(ctx, ref)
	case action.SendPoll:
		return client.SendPoll(ctx, telegram.Poll{
			ChatID:      cfg.ChatID,
			Question:    cfg.Question,
			Options:     cfg.PollOptions,
			IsAnonymous: cfg.IsAnonymous,
			Type:        cfg.PollType,
		})
	case action.StopPoll:
		return client.StopPoll(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %q", action.ErrUnknownKind, cfg.Type)
	}
}

// logResponse writes the status line, and the raw body in debug mode only.
func (a *Agent) logResponse(cfg config.Config, resp *telegram.Response) {
	a.log.Always(fmt.Sprintf("request status : %d", resp.StatusCode), logger.Fields{
		"agent":  a.name,
		"action": resp.Method,
	})

	if cfg.Debug {
		a.log.Always("body", logger.Fields{
			"agent":  a.name,
			"action": resp.Method,
			"body":   string(resp.Body),
		})
	}
}
