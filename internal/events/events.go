// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package events announces finished runs on an in-process Watermill
// GoChannel so that downstream consumers can react without polling.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/selection"
)

// Topics.
const (
	TopicRunCompleted = "selection.completed"
	TopicRunFailed    = "selection.failed"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("event bus is closed")

// RunCompleted is published after a run is stored.
type RunCompleted struct {
	RunID      string                `json:"run_id"`
	Category   string                `json:"category"`
	AsOf       time.Time             `json:"as_of"`
	MergeCase  selection.MergeCase   `json:"merge_case"`
	Passed     bool                  `json:"passed"`
	Final      []selection.FinalPick `json:"final"`
	Warnings   []string              `json:"warnings,omitempty"`
	SnapshotID string                `json:"snapshot_id,omitempty"`
}

// RunFailed is published when a scheduled run cannot complete.
type RunFailed struct {
	Category string    `json:"category"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// Publisher announces run outcomes.
type Publisher interface {
	PublishRun(ctx context.Context, run *pipeline.Run) error
	PublishFailure(ctx context.Context, category string, cause error) error
}

// Bus is a GoChannel-backed Publisher that also hands out subscriptions.
type Bus struct {
	pubsub *gochannel.GoChannel
	mu     sync.RWMutex
	closed bool
	logger zerolog.Logger
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a bus. buffer is the per-subscriber channel size.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(buffer int64, logger zerolog.Logger) *Bus {
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandler(logger)))
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, wmLogger),
		logger: logger,
	}
}

// PublishRun announces a completed run on TopicRunCompleted.
func (b *Bus) PublishRun(ctx context.Context, run *pipeline.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	event := RunCompleted{
		RunID:      run.ID,
		Category:   run.Category,
		AsOf:       run.AsOf,
		MergeCase:  run.Final.MergeCase,
		Passed:     run.Selection.Passed(),
		Final:      run.Final.Final,
		Warnings:   run.Warnings,
		SnapshotID: run.SnapshotID,
	}
	return b.publish(ctx, TopicRunCompleted, run.ID, run.Category, event)
}

// PublishFailure announces a failed run on TopicRunFailed.
func (b *Bus) PublishFailure(ctx context.Context, category string, cause error) error {
	event := RunFailed{Category: category, At: time.Now().UTC()}
	if cause != nil {
		event.Error = cause.Error()
	}
	return b.publish(ctx, TopicRunFailed, watermill.NewUUID(), category, event)
}

func (b *Bus) publish(ctx context.Context, topic, id, category string, event interface{}) (err error) {
	defer func() { metrics.RecordPublish(topic, err) }()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(id, data)
	msg.Metadata.Set("category", category)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	b.logger.Debug().Str("topic", topic).Str("message_id", id).Msg("Event published")
	return nil
}

// Subscribe returns messages published on topic after the call. Each
// message must be Acked before the next one is delivered.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.pubsub.Subscribe(ctx, topic)
}

// Close stops the bus and closes every subscription channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// DecodeRunCompleted decodes a TopicRunCompleted payload.
func DecodeRunCompleted(msg *message.Message) (*RunCompleted, error) {
	var ev RunCompleted
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode run completed: %w", err)
	}
	return &ev, nil
}

// DecodeRunFailed decodes a TopicRunFailed payload.
func DecodeRunFailed(msg *message.Message) (*RunFailed, error) {
	var ev RunFailed
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode run failed: %w", err)
	}
	return &ev, nil
}
