package main

import (
	"context"
	"errors"

	"blog-system/eventbus"
	"blog-system/events"
	"blog-system/internal/logger"
	"blog-system/models"
	"blog-system/storage"
)

type attachmentDeleter interface {
	Delete(ctx context.Context, att models.Attachment) error
}

// cleanupHandler 는 정리 요청 이벤트의 첨부파일을 삭제한다.
// 페이로드의 type 으로 먼저 분기하고, 정리 요청이 아니거나 해석할 수 없는 메시지는 건너뛴다.
// 삭제 오류를 반환하면 eventbus 가 재시도 토픽으로 보내고, 경로가 잘못된 요청은 재시도하지 않는다.
func cleanupHandler(store attachmentDeleter, log logger.Logger) eventbus.EventHandler {
	return func(ctx context.Context, meta eventbus.Event) error {
		typ, err := events.PeekType(meta.Payload)
		if err != nil {
			log.Errorf("dropping unreadable event %s: %v", meta.ID, err)
			return nil
		}
		if typ != events.AttachmentCleanupRequested {
			log.Warnf("skip unexpected event type %q (id=%s)", typ, meta.ID)
			return nil
		}

		evt, err := eventbus.DecodeJSON[events.AttachmentCleanupRequestedEvent](meta)
		if err != nil {
			log.Errorf("dropping malformed cleanup event %s: %v", meta.ID, err)
			return nil
		}

		fields := logger.Fields{
			"event_id": meta.ID,
			"post_id":  evt.PostID.Hex(),
			"path":     evt.Attachment.Path,
			"retry":    meta.Retry,
		}
		if err := store.Delete(ctx, evt.Attachment); err != nil {
			fields["error"] = err.Error()
			if errors.Is(err, storage.ErrInvalidPath) {
				logger.ErrorWithFields(log, "dropping cleanup request with invalid path", fields)
				return nil
			}
			logger.WarnWithFields(log, "attachment cleanup failed", fields)
			return err
		}
		logger.InfoWithFields(log, "attachment cleaned up", fields)
		return nil
	}
}
