// Package natsadapter publishes workspace and run lifecycle events over
// NATS JetStream.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// Subjects used by the publisher. The WebSocket relay subscribes to
// "terra.run.>" to stream run progress to clients.
const (
	SubjectRunStarted        = "terra.run.started"
	SubjectRunCompleted      = "terra.run.completed"
	SubjectRunFailed         = "terra.run.failed"
	SubjectDatasetRegistered = "terra.dataset.registered"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "TERRA_RUNS",
			Subjects:  []string{"terra.run.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "TERRA_DATASETS",
			Subjects:  []string{"terra.dataset.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// runEvent is the JSON payload of a run lifecycle event. The heavy point
// payloads stay out of the broker; consumers fetch them over the API.
type runEvent struct {
	RunID     string              `json:"run_id"`
	Status    domain.RunStatus    `json:"status"`
	Selection domain.RunSelection `json:"selection"`
	Counts    domain.StageCounts  `json:"counts"`
	Error     string              `json:"error,omitempty"`
}

func (p *Publisher) PublishRunStarted(ctx context.Context, run *domain.Run) error {
	return p.publishRun(SubjectRunStarted, run)
}

func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.Run) error {
	return p.publishRun(SubjectRunCompleted, run)
}

func (p *Publisher) PublishRunFailed(ctx context.Context, run *domain.Run) error {
	return p.publishRun(SubjectRunFailed, run)
}

func (p *Publisher) PublishDatasetRegistered(ctx context.Context, ds *domain.Dataset) error {
	data, err := json.Marshal(map[string]string{
		"id":   ds.ID,
		"name": ds.Name,
		"kind": string(ds.Kind),
		"crs":  string(ds.CRS),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectDatasetRegistered, data)
	return err
}

func (p *Publisher) publishRun(subject string, run *domain.Run) error {
	data, err := json.Marshal(runEvent{
		RunID:     run.ID,
		Status:    run.Status,
		Selection: run.Selection,
		Counts:    run.Counts,
		Error:     run.Error,
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. the
// WebSocket progress relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
