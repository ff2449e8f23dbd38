// internal/pkg/mq/mq_test.go
package mq

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestKafkaHeaderCarrier(t *testing.T) {
	msg := kafka.Message{}
	carrier := kafkaHeaderCarrier{msg: &msg}

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("Get = %q", got)
	}

	// 同名键覆盖而不是追加
	carrier.Set("traceparent", "00-abc-def-02")
	if len(msg.Headers) != 1 {
		t.Fatalf("headers = %d, want 1", len(msg.Headers))
	}
	if got := carrier.Get("traceparent"); got != "00-abc-def-02" {
		t.Errorf("Get after overwrite = %q", got)
	}

	carrier.Set("baggage", "k=v")
	keys := carrier.Keys()
	if len(keys) != 2 {
		t.Errorf("keys = %v", keys)
	}

	if got := carrier.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}
