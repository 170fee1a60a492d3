package gateevents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"parkwise/pkg/logger"
)

// LifecycleHandler is the slice of the booking service the consumer drives.
type LifecycleHandler interface {
	HandlePaymentResult(ctx context.Context, bookingID uuid.UUID, succeeded bool, amount float64, gateway, transactionID, failureReason string) error
	HandleGateEntry(ctx context.Context, bookingID uuid.UUID, at time.Time) error
	HandleGateExit(ctx context.Context, bookingID uuid.UUID, at time.Time) error
}

type Consumer interface {
	Start(ctx context.Context, numWorkers int) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	PaymentTopic     string
	GateTopic        string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
}

func DefaultConsumerConfig(brokers []string, groupID, paymentTopic, gateTopic string) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          brokers,
		GroupID:          groupID,
		PaymentTopic:     paymentTopic,
		GateTopic:        gateTopic,
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     false,
	}
}

// KafkaConsumer consumes payment-gateway and gate-barrier events and feeds
// them into the booking lifecycle.
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       LifecycleHandler
	logger        *logger.Logger
	topics        []string
	cancel        context.CancelFunc
	ctx           context.Context
	workers       sync.WaitGroup
}

func NewKafkaConsumer(config *ConsumerConfig, handler LifecycleHandler, log *logger.Logger) (Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
		logger:        log,
		topics:        []string{config.PaymentTopic, config.GateTopic},
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func (kc *KafkaConsumer) Start(ctx context.Context, numWorkers int) error {
	kc.logger.Info("starting event consumer workers",
		"workers", numWorkers, "topics", fmt.Sprintf("%v", kc.topics))

	go kc.handleErrors()

	for i := 0; i < numWorkers; i++ {
		kc.workers.Add(1)
		go func(workerID int) {
			defer kc.workers.Done()
			kc.runWorker(ctx, workerID)
		}(i)
	}
	return nil
}

func (kc *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &groupHandler{consumer: kc, workerID: workerID}

	for {
		select {
		case <-ctx.Done():
			return
		case <-kc.ctx.Done():
			return
		default:
			if err := kc.consumerGroup.Consume(ctx, kc.topics, handler); err != nil {
				kc.logger.Error("consumer worker error",
					"worker", workerID, "error", err.Error())
				time.Sleep(time.Second)
			}
		}
	}
}

func (kc *KafkaConsumer) handleErrors() {
	for err := range kc.consumerGroup.Errors() {
		kc.logger.Error("consumer group error", "error", err.Error())
	}
}

func (kc *KafkaConsumer) Stop() error {
	kc.cancel()
	if err := kc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	// Wait for in-flight messages to finish before reporting stopped.
	kc.workers.Wait()
	kc.logger.Info("event consumer stopped")
	return nil
}

func (kc *KafkaConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-kc.ctx.Done():
		return fmt.Errorf("consumer context is cancelled")
	default:
		return nil
	}
}

type groupHandler struct {
	consumer *KafkaConsumer
	workerID int
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.consumer.logger.Error("failed to process event",
					"worker", h.workerID,
					"topic", message.Topic,
					"offset", message.Offset,
					"error", err.Error())
			}
			// Mark regardless: a poison message is logged, not re-delivered forever.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	switch message.Topic {
	case h.consumer.config.PaymentTopic:
		var event PaymentEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal payment event: %w", err)
		}
		return h.consumer.handler.HandlePaymentResult(ctx, event.BookingID, event.Succeeded,
			event.Amount, event.Gateway, event.TransactionID, event.FailureReason)

	case h.consumer.config.GateTopic:
		var event GateEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal gate event: %w", err)
		}
		at := event.OccurredAt
		if at.IsZero() {
			at = message.Timestamp
		}
		switch event.Direction {
		case DirectionEntry:
			return h.consumer.handler.HandleGateEntry(ctx, event.BookingID, at)
		case DirectionExit:
			return h.consumer.handler.HandleGateExit(ctx, event.BookingID, at)
		default:
			return fmt.Errorf("unknown gate direction %q", event.Direction)
		}

	default:
		return fmt.Errorf("unexpected topic %s", message.Topic)
	}
}
