package service

import "context"

// EventTopic names a live-feed channel.
type EventTopic string

const (
	// TopicFeedback carries newly submitted feedback records.
	TopicFeedback EventTopic = "feedback"
	// TopicGenerations carries completed generation runs.
	TopicGenerations EventTopic = "generations"
)

// EventPublisher fans domain events out to live-feed subscribers. Services
// treat publishing as best effort; a nil publisher disables it.
type EventPublisher interface {
	Publish(ctx context.Context, topic EventTopic, payload any)
}
