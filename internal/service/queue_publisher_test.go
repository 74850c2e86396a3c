package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-catalog/internal/queue"
)

func TestPublishOrderCreatedReportsDialErrors(t *testing.T) {
	p := NewAMQPPublisher("http://not-a-broker")
	err := p.PublishOrderCreated(context.Background(), queue.OrderCreatedEvent{OrderID: 1})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "rabbitmq dial")
	}
}
