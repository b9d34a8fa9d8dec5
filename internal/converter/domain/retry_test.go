package domain_test

import (
	"testing"

	"video2mp3_service/internal/converter/domain"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestRetryCount(t *testing.T) {
	t.Run("no headers", func(t *testing.T) {
		assert.Equal(t, 0, domain.RetryCount(nil))
		assert.Equal(t, 0, domain.RetryCount(amqp.Table{}))
	})

	t.Run("sums x-death counts", func(t *testing.T) {
		headers := amqp.Table{
			"x-death": []interface{}{
				amqp.Table{"count": int64(2), "queue": "video"},
				amqp.Table{"count": int64(1), "queue": "video.dlq"},
			},
		}
		assert.Equal(t, 3, domain.RetryCount(headers))
	})

	t.Run("ignores malformed x-death entries", func(t *testing.T) {
		headers := amqp.Table{
			"x-death": []interface{}{
				"not a table",
				amqp.Table{"count": int64(2)},
				amqp.Table{"queue": "video"}, // no count
			},
		}
		assert.Equal(t, 2, domain.RetryCount(headers))
	})

	t.Run("x-death takes precedence over x-retry-count", func(t *testing.T) {
		headers := amqp.Table{
			"x-death":       []interface{}{amqp.Table{"count": int64(1)}},
			"x-retry-count": int64(9),
		}
		assert.Equal(t, 1, domain.RetryCount(headers))
	})

	t.Run("falls back to x-retry-count", func(t *testing.T) {
		assert.Equal(t, 2, domain.RetryCount(amqp.Table{"x-retry-count": int64(2)}))
		assert.Equal(t, 2, domain.RetryCount(amqp.Table{"x-retry-count": int32(2)}))
		assert.Equal(t, 2, domain.RetryCount(amqp.Table{"x-retry-count": 2}))
	})
}
