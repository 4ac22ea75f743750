package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"school_backend/internal/domain/importer"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// ImportRunner executes one import job to completion.
type ImportRunner interface {
	Run(ctx context.Context, job importer.Job) (*importer.Report, error)
}

// OpsAlerter mirrors job outcomes to an operations channel. Implementations
// must tolerate being called on a nil receiver (alerts are optional).
type OpsAlerter interface {
	ImportCompleted(initiator importer.Initiator, report *importer.Report)
	ImportFailed(job importer.Job, err error)
}

// ImportConsumer runs import jobs from the job topic. An infrastructure
// failure leaves the message unmarked and aborts the session, so the queue
// redelivers the job; row-level problems never fail a job.
type ImportConsumer struct {
	ready  chan bool
	runner ImportRunner
	ops    OpsAlerter
	logger *logrus.Logger
}

func NewImportConsumer(runner ImportRunner, ops OpsAlerter, logger *logrus.Logger) *ImportConsumer {
	return &ImportConsumer{
		ready:  make(chan bool),
		runner: runner,
		ops:    ops,
		logger: logger,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *ImportConsumer) Setup(sarama.ConsumerGroupSession) error {
	close(c.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *ImportConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages()
func (c *ImportConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var job importer.Job
		if err := json.Unmarshal(message.Value, &job); err != nil || job.PayloadPath == "" {
			// Undecodable payloads would redeliver forever; drop them.
			c.logger.Errorf("Discarding unreadable import job message at offset %d: %v", message.Offset, err)
			session.MarkMessage(message, "")
			continue
		}

		report, err := c.runner.Run(session.Context(), job)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"payload":   job.PayloadPath,
				"school_id": job.Initiator.SchoolID,
			}).Errorf("Import job attempt failed: %v", err)
			c.ops.ImportFailed(job, err)
			return fmt.Errorf("import job for payload %s failed: %w", job.PayloadPath, err)
		}

		c.ops.ImportCompleted(job.Initiator, report)
		session.MarkMessage(message, "")
	}
	return nil
}

// StartImportConsumerGroup joins the consumer group and keeps consuming until
// ctx is cancelled. It returns once the first session is established.
func StartImportConsumerGroup(
	ctx context.Context,
	brokers []string,
	topic, groupID string,
	runner ImportRunner,
	ops OpsAlerter,
	logger *logrus.Logger,
) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return fmt.Errorf("failed to create import consumer group: %w", err)
	}

	consumer := NewImportConsumer(runner, ops, logger)

	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				logger.Errorf("Import consumer error: %v", err)
				time.Sleep(5 * time.Second)
			}
			if ctx.Err() != nil {
				return
			}
			consumer.ready = make(chan bool)
		}
	}()

	<-consumer.ready
	logger.Info("Import job consumer up and running")
	return nil
}
