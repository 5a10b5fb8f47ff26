package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"blog-system/config"
	"blog-system/eventbus"
	"blog-system/internal/logger"
)

// retryworker 는 재시도 토픽의 이벤트를 지연 시간이 지나면 기본 토픽으로 되돌린다.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)

	if !cfg.EventBus.Enabled() {
		log.Error("retry worker requires KAFKA_BOOTSTRAP_SERVERS")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokers := cfg.EventBus.Brokers
	for _, t := range eventbus.AllTopics {
		if err := eventbus.EnsureTopics(brokers, t, cfg.EventBus.Partitions); err != nil {
			log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
		}
	}

	bus, err := eventbus.NewKafkaEventBus(brokers, log)
	if err != nil {
		log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	log.Info("starting retry worker...")

	var wg sync.WaitGroup
	for _, topic := range eventbus.AllTopics {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bus.StartRetryReinjector(ctx, reinjectorGroupID(cfg.EventBus.GroupID, topic), topic); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("eventbus retry reinjector error for %s: %v", topic.Base(), err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received shutdown signal, shutting down retry worker...")

	cancel()
	wg.Wait()

	log.Info("retry worker stopped")
}

// reinjectorGroupID 는 토픽마다 별도 consumer group 을 쓴다.
func reinjectorGroupID(base string, topic eventbus.Topic) string {
	return base + "-retry-worker-" + strings.ReplaceAll(topic.Base(), ".", "-")
}
