package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"blog-system/config"
	"blog-system/eventbus"
	"blog-system/internal/logger"
	"blog-system/storage"
)

// janitor 는 포스트 삭제 중 지우지 못한 첨부파일 정리 요청을 소비한다.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)

	if !cfg.EventBus.Enabled() {
		log.Error("janitor requires KAFKA_BOOTSTRAP_SERVERS")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Uploads)
	if err != nil {
		log.Errorf("failed to init attachment store: %v", err)
		os.Exit(1)
	}

	if err := eventbus.EnsureTopics(cfg.EventBus.Brokers, eventbus.TopicAttachmentCleanup, cfg.EventBus.Partitions); err != nil {
		log.Errorf("failed to ensure eventbus topics for %s: %v", eventbus.TopicAttachmentCleanup.Base(), err)
	}

	bus, err := eventbus.NewKafkaEventBus(cfg.EventBus.Brokers, log)
	if err != nil {
		log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	groupID := cfg.EventBus.GroupID + "-janitor"
	log.Info("starting attachment janitor...")

	wait := startConsumer(ctx, cancel, log, func(ctx context.Context) error {
		return bus.Subscribe(ctx, groupID, eventbus.TopicAttachmentCleanup, cleanupHandler(store, log))
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Info("received shutdown signal, shutting down janitor...")
	case <-ctx.Done():
	}
	cancel()
	// 진행 중인 삭제가 끝난 뒤에 producer 를 닫는다.
	wait()

	log.Info("janitor stopped")
}

// startConsumer 는 subscribe 를 고루틴으로 실행하고, 종료를 기다리는 함수를 반환한다.
// 취소가 아닌 오류로 끝나면 cancel 을 호출해 main 도 종료시킨다.
func startConsumer(ctx context.Context, cancel context.CancelFunc, log logger.Logger, subscribe func(ctx context.Context) error) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := subscribe(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("janitor subscription error: %v", err)
			cancel()
		}
	}()
	return wg.Wait
}

