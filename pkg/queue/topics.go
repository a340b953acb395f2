package queue

// 主题命名规范：av.<域>.<动作>，保持稳定且向后兼容.
// 域：blob(附件内容)；动作：created(行已创建)、attached(已绑定)、analyzed(分析完成)、swept(被清扫).

const (
	// TopicBlobCreated 直传授权签发成功，Blob 行已落库（内容可能尚未上传）.
	TopicBlobCreated = "av.blob.created"
	// TopicBlobAttached Blob 已绑定到记录，分析工作进程订阅此主题.
	TopicBlobAttached = "av.blob.attached"
	// TopicBlobAnalyzed 分析流水线执行完成，元数据已合并写回.
	TopicBlobAnalyzed = "av.blob.analyzed"
	// TopicBlobSwept 从未绑定的孤儿 Blob 被清扫任务删除.
	TopicBlobSwept = "av.blob.swept"
)

// BlobTopics 附件内容相关主题集合.
var BlobTopics = []string{
	TopicBlobCreated, TopicBlobAttached, TopicBlobAnalyzed, TopicBlobSwept,
}
