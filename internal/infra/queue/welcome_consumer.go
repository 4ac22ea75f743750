package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"school_backend/internal/domain/notify"
	domainqueue "school_backend/internal/domain/queue"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// WelcomeConsumer delivers welcome notifications from the welcome topic.
// Delivery failures are logged and the message is marked anyway: one
// undeliverable address must not stall every other user's welcome message.
type WelcomeConsumer struct {
	ready    chan bool
	notifier notify.Notifier
	logger   *logrus.Logger
}

func NewWelcomeConsumer(notifier notify.Notifier, logger *logrus.Logger) *WelcomeConsumer {
	return &WelcomeConsumer{
		ready:    make(chan bool),
		notifier: notifier,
		logger:   logger,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *WelcomeConsumer) Setup(sarama.ConsumerGroupSession) error {
	close(c.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *WelcomeConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages()
func (c *WelcomeConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var task domainqueue.WelcomeTask
		if err := json.Unmarshal(message.Value, &task); err != nil || task.Email == "" {
			c.logger.Errorf("Discarding unreadable welcome task at offset %d: %v", message.Offset, err)
			session.MarkMessage(message, "")
			continue
		}

		if err := c.notifier.SendWelcome(session.Context(), task); err != nil {
			c.logger.Errorf("Failed to send welcome notification to %s: %v", task.Email, err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

// StartWelcomeConsumerGroup joins the consumer group and keeps consuming
// until ctx is cancelled.
func StartWelcomeConsumerGroup(
	ctx context.Context,
	brokers []string,
	topic, groupID string,
	notifier notify.Notifier,
	logger *logrus.Logger,
) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return fmt.Errorf("failed to create welcome consumer group: %w", err)
	}

	consumer := NewWelcomeConsumer(notifier, logger)

	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				logger.Errorf("Welcome consumer error: %v", err)
				time.Sleep(5 * time.Second)
			}
			if ctx.Err() != nil {
				return
			}
			consumer.ready = make(chan bool)
		}
	}()

	<-consumer.ready
	logger.Info("Welcome notification consumer up and running")
	return nil
}
