package kafka

// Topics для Kafka
const (
	TopicOrderEvents     = "ecom.order.events"
	TopicDeadLetterQueue = "ecom.dlq" // события, не доставленные после retry
)

// Kafka headers, сопровождающие сообщения в DLQ
const (
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)
