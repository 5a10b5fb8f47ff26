package eventbus

// 기능별 기본 토픽 이름을 한 곳에서 관리합니다.
var (
	// TopicPostEvents 는 포스트 생성/수정/삭제 이벤트 토픽입니다.
	TopicPostEvents = NewTopic("blog-system.post.events")
	// TopicAttachmentCleanup 은 삭제에 실패한 첨부파일 정리 요청 토픽입니다.
	TopicAttachmentCleanup = NewTopic("blog-system.attachment.cleanup")
)

var AllTopics = []Topic{
	TopicPostEvents,
	TopicAttachmentCleanup,
}
