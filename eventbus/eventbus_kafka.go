package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"blog-system/internal/logger"
)

// publishFailureBackoff 는 재시도/재주입 발행이 실패한 메시지를 다시 읽기 전 대기 시간이다.
const publishFailureBackoff = time.Second

// partitionSeeker 는 *kafka.Consumer 의 오프셋 되감기 연산이다.
type partitionSeeker interface {
	SeekPartitions(partitions []kafka.TopicPartition) ([]kafka.TopicPartition, error)
}

// KafkaEventBus는 confluent-kafka-go 를 사용한 EventBus 구현체입니다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
	log      logger.Logger
}

// NewKafkaEventBus는 Kafka Producer를 초기화합니다.
func NewKafkaEventBus(brokers string, log logger.Logger) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	// 전달 보고서 및 비동기 오류 처리
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					log.Errorf("kafka delivery failed %v: %v", ev.TopicPartition, ev.TopicPartition.Error)
				}
			case kafka.Error:
				log.Errorf("kafka error: %v", ev)
			}
		}
	}()

	return &KafkaEventBus{
		Producer: p,
		Brokers:  brokers,
		log:      log,
	}, nil
}

// Close는 남은 메시지를 최대 5초간 플러시한 뒤 Producer를 닫습니다.
func (k *KafkaEventBus) Close() {
	if k.Producer != nil {
		if remaining := k.Producer.Flush(5000); remaining > 0 {
			k.log.Warnf("%d kafka messages still pending after flush", remaining)
		}
		k.Producer.Close()
		k.log.Info("kafka producer closed")
	}
}

// Publish는 지정된 토픽에 이벤트를 발행하고 전달 결과를 기다립니다.
func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver to %s: %w", topic, m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (k *KafkaEventBus) newConsumer(groupID string) (*kafka.Consumer, error) {
	return kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도 로직을 위해 수동 커밋
		"partition.assignment.strategy": "range",
	})
}

// Subscribe는 기본 토픽을 구독하고 handler를 실행합니다.
// handler가 실패하면 다음 재시도 토픽으로, 최대 재시도를 넘기면 DLQ로 보낸 뒤 커밋합니다.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic.Base()}, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic.Base(), err)
	}
	k.log.Infof("consumer %s started on %s", groupID, topic.Base())

	for {
		select {
		case <-ctx.Done():
			k.log.Info("consumer stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.IsFatal() {
				return fmt.Errorf("consumer fatal error: %w", err)
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			k.log.Errorf("invalid event payload on %s: %v; skipping", *msg.TopicPartition.Topic, err)
			_, _ = c.CommitMessage(msg)
			continue
		}
		if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
			evt.MaxRetry = len(RetryDelays)
		}

		if evt.Retry > 0 {
			k.log.Infof("handling event %s (retry %d/%d)", evt.ID, evt.Retry, evt.MaxRetry)
		} else {
			k.log.Debugf("handling event %s", evt.ID)
		}

		if herr := handler(ctx, evt); herr != nil {
			if !k.scheduleRetry(ctx, topic, evt, herr) {
				// 재시도/DLQ 발행 실패: 커밋하지 않고 같은 오프셋부터 다시 읽는다.
				k.rewind(ctx, c, msg.TopicPartition, publishFailureBackoff)
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			k.log.Errorf("commit offset: %v", err)
		}
	}
}

// rewind 는 커밋하지 않은 메시지의 오프셋으로 되돌린 뒤 backoff 만큼 대기한다.
// 다음 ReadMessage 는 같은 메시지를 다시 반환한다.
func (k *KafkaEventBus) rewind(ctx context.Context, c partitionSeeker, tp kafka.TopicPartition, backoff time.Duration) {
	if _, err := c.SeekPartitions([]kafka.TopicPartition{tp}); err != nil {
		k.log.Errorf("seek back partition %d offset %v: %v", tp.Partition, tp.Offset, err)
	}
	if backoff <= 0 {
		return
	}
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// scheduleRetry 는 실패한 이벤트를 다음 재시도 토픽 또는 DLQ로 보냅니다.
// 발행에 성공하면 true 를 반환합니다.
func (k *KafkaEventBus) scheduleRetry(ctx context.Context, topic Topic, evt Event, cause error) bool {
	evt.LastError = cause.Error()
	next := evt.Retry + 1

	if next > evt.MaxRetry {
		k.log.Errorf("event %s exceeded max retry; sending to %s: %v", evt.ID, topic.DLQ(), cause)
		if err := k.Publish(ctx, topic.DLQ(), evt); err != nil {
			k.log.Errorf("publish to DLQ %s: %v", topic.DLQ(), err)
			return false
		}
		return true
	}

	retryTopic, err := topic.GetRetryTopic(next)
	if err != nil {
		k.log.Errorf("resolve retry topic for event %s: %v", evt.ID, err)
		return false
	}
	evt.Retry = next
	k.log.Warnf("event %s failed; scheduling retry %d/%d on %s", evt.ID, evt.Retry, evt.MaxRetry, retryTopic)
	if err := k.Publish(ctx, retryTopic, evt); err != nil {
		k.log.Errorf("publish to retry topic %s: %v", retryTopic, err)
		return false
	}
	return true
}

// StartRetryReinjector는 모든 재시도 토픽을 구독하고, 지연 시간이 지난 메시지를
// 기본 토픽으로 재발행합니다.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("create reinjector consumer: %w", err)
	}
	defer c.Close()

	retryTopics := topic.GetRetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("subscribe retry topics %v: %w", retryTopics, err)
	}
	k.log.Infof("retry reinjector %s started on %s", groupID, strings.Join(retryTopics, ", "))

	for {
		select {
		case <-ctx.Done():
			k.log.Info("retry reinjector stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					return fmt.Errorf("reinjector fatal error: %w", err)
				}
			}
			k.log.Errorf("reinjector read: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		topicName := *msg.TopicPartition.Topic
		delay, ok := ParseRetryDelayFromTopicName(topicName)
		if !ok {
			k.log.Errorf("cannot parse retry delay from %s; skipping", topicName)
			_, _ = c.CommitMessage(msg)
			continue
		}

		readyAt := msg.Timestamp.Add(delay)
		if wait := time.Until(readyAt); wait > 0 {
			// 컨슈머 전체를 오래 막지 않도록 짧게만 대기하고, 오프셋을 되돌려 다시 읽는다.
			if wait > 500*time.Millisecond {
				wait = 500 * time.Millisecond
			}
			time.Sleep(wait)
			if _, err := c.SeekPartitions([]kafka.TopicPartition{msg.TopicPartition}); err != nil {
				k.log.Errorf("seek back %s: %v", topicName, err)
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			k.log.Errorf("invalid event payload on %s: %v; skipping", topicName, err)
			_, _ = c.CommitMessage(msg)
			continue
		}

		k.log.Infof("reinjecting event %s from %s to %s (retry %d)", evt.ID, topicName, topic.Base(), evt.Retry)
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			k.log.Errorf("reinject event %s: %v", evt.ID, err)
			k.rewind(ctx, c, msg.TopicPartition, publishFailureBackoff)
			continue
		}

		if _, err := c.CommitMessage(msg); err != nil {
			k.log.Errorf("commit after reinject: %v", err)
		}
	}
}
