// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package services

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/events"
)

// Subscriber delivers messages published on a topic.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// EventLogService writes every run outcome event to the log and calls its
// hooks for each completed run.
type EventLogService struct {
	subscriber  Subscriber
	onCompleted []func(*events.RunCompleted)
	logger      zerolog.Logger
}

// NewEventLogService creates the service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLogService(subscriber Subscriber, logger zerolog.Logger, onCompleted ...func(*events.RunCompleted)) *EventLogService {
	return &EventLogService{
		subscriber:  subscriber,
		onCompleted: onCompleted,
		logger:      logger.With().Str("component", "event-log").Logger(),
	}
}

// Serve implements suture.Service. A closed subscription is an error so
// suture restarts the service.
func (e *EventLogService) Serve(ctx context.Context) error {
	completed, err := e.subscriber.Subscribe(ctx, events.TopicRunCompleted)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicRunCompleted, err)
	}
	failed, err := e.subscriber.Subscribe(ctx, events.TopicRunFailed)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicRunFailed, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-completed:
			if !ok {
				return subscriptionClosed(ctx, events.TopicRunCompleted)
			}
			e.logCompleted(msg)
			msg.Ack()
		case msg, ok := <-failed:
			if !ok {
				return subscriptionClosed(ctx, events.TopicRunFailed)
			}
			e.logFailed(msg)
			msg.Ack()
		}
	}
}

func (e *EventLogService) logCompleted(msg *message.Message) {
	ev, err := events.DecodeRunCompleted(msg)
	if err != nil {
		e.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Undecodable event")
		return
	}
	e.logger.Info().
		Str("run_id", ev.RunID).
		Str("category", ev.Category).
		Str("merge_case", string(ev.MergeCase)).
		Bool("passed", ev.Passed).
		Int("picks", len(ev.Final)).
		Int("warnings", len(ev.Warnings)).
		Msg("Selection completed")
	for _, hook := range e.onCompleted {
		hook(ev)
	}
}

func (e *EventLogService) logFailed(msg *message.Message) {
	ev, err := events.DecodeRunFailed(msg)
	if err != nil {
		e.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Undecodable event")
		return
	}
	e.logger.Warn().
		Str("category", ev.Category).
		Str("error", ev.Error).
		Msg("Selection failed")
}

func subscriptionClosed(ctx context.Context, topic string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("subscription %s closed", topic)
}

// String implements fmt.Stringer for suture's log messages.
func (e *EventLogService) String() string {
	return "event-log"
}
