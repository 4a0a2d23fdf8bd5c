package queue

import "errors"

var (
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)

// Queue carries items from producers on any goroutine to a single consumer.
// Implementations must be thread-safe and must not block producers.
type Queue interface {
	// Enqueue adds an item or fails with ErrQueueFull.
	Enqueue(item interface{}) error
	// Dequeue removes the oldest item or fails with ErrQueueEmpty.
	Dequeue() (interface{}, error)
	Size() int
	// ReadAllMessages drains every pending item in order.
	ReadAllMessages() ([]interface{}, error)
	ClearQueue()
}
