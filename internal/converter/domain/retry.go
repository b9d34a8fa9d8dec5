package domain

import (
	"github.com/streadway/amqp"
)

// RetryCount read the cumulative redelivery count from delivery headers.
// The broker accumulates x-death entries across requeues, so the count is
// read from the message itself each time, the worker holds no state for it.
func RetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}

	if deaths, ok := headers["x-death"].([]interface{}); ok {
		total := 0
		for _, entry := range deaths {
			death, ok := entry.(amqp.Table)
			if !ok {
				continue
			}
			total += toInt(death["count"])
		}
		return total
	}

	// fallback custom header
	return toInt(headers["x-retry-count"])
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}
