// Package kafka publishes reports to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per report.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes the report and writes it keyed by title.
func (w *Writer) Publish(ctx context.Context, report domain.Report) error {
	msg, err := serializeToMessage(report, domain.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report message: %w", err)
	}
	w.logger.Info("report written to kafka", "title", report.Title, "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// reportMessage is the JSON payload of a report message.
type reportMessage struct {
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generated_at"`
	Grid        [][]string     `json:"grid"`
	Alerts      []alertMessage `json:"alerts"`
}

type alertMessage struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Cell   string `json:"cell"`
	Reason string `json:"reason"`
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(report domain.Report, generatedAt time.Time) (kafkago.Message, error) {
	payload := reportMessage{
		Title:       report.Title,
		GeneratedAt: generatedAt.UTC(),
		Grid:        report.Grid(),
		Alerts:      make([]alertMessage, len(report.Alerts)),
	}
	for i, a := range report.Alerts {
		payload.Alerts[i] = alertMessage{Row: a.Row, Column: a.Column, Cell: a.Cell(), Reason: string(a.Reason)}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Title),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alerts", Value: []byte(strconv.Itoa(len(report.Alerts)))},
			{Key: "generated_at", Value: []byte(payload.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
