package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"school_backend/internal/domain/importer"
	domainqueue "school_backend/internal/domain/queue"

	"github.com/IBM/sarama"
)

// KafkaTaskQueue implements the domain TaskQueue on top of a Sarama
// SyncProducer. WaitForAll acks plus producer retries give the at-least-once
// submission semantics the pipeline relies on.
type KafkaTaskQueue struct {
	producer     sarama.SyncProducer
	importTopic  string
	welcomeTopic string
}

func NewKafkaTaskQueue(brokers []string, importTopic, welcomeTopic string) (*KafkaTaskQueue, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaTaskQueue{
		producer:     producer,
		importTopic:  importTopic,
		welcomeTopic: welcomeTopic,
	}, nil
}

// EnqueueImportJob submits one whole import job. Keyed by school so jobs of
// one tenant keep their order on a partition.
func (q *KafkaTaskQueue) EnqueueImportJob(ctx context.Context, job importer.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: q.importTopic,
		Key:   sarama.StringEncoder(job.Initiator.SchoolID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := q.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to enqueue import job: %w", err)
	}
	return nil
}

// EnqueueWelcomeTasks submits one independent task per committed user, as a
// single producer batch.
func (q *KafkaTaskQueue) EnqueueWelcomeTasks(ctx context.Context, tasks []domainqueue.WelcomeTask) error {
	if len(tasks) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(tasks))
	for _, task := range tasks {
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal welcome task for %s: %w", task.Email, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: q.welcomeTopic,
			Key:   sarama.StringEncoder(task.Email),
			Value: sarama.ByteEncoder(data),
		})
	}

	if err := q.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to enqueue welcome tasks: %w", err)
	}
	return nil
}

func (q *KafkaTaskQueue) Close() error {
	return q.producer.Close()
}
