// internal/pkg/mq/mq.go
package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// NewWriter 创建一个指向指定 topic 的 Kafka 生产者。
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // 同一 key 的消息落到同一分区，保证单订单事件有序
		RequiredAcks: kafka.RequireAll,
	}
}

// NewReader 创建一个消费组 Reader。
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// ProduceMessage 发送消息，并把当前追踪上下文注入消息头，
// 下游消费方可以用 ExtractContext 还原出同一条链路。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	msg := kafka.Message{Key: key, Value: value}

	carrier := kafkaHeaderCarrier{msg: &msg}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	return writer.WriteMessages(ctx, msg)
}

// ExtractContext 从消息头中还原追踪上下文。
func ExtractContext(ctx context.Context, msg *kafka.Message) context.Context {
	carrier := kafkaHeaderCarrier{msg: msg}
	return otel.GetTextMapPropagator().Extract(ctx, &carrier)
}

// kafkaHeaderCarrier 将 kafka.Message 的 Headers 适配为 otel 的 TextMapCarrier。
type kafkaHeaderCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = (*kafkaHeaderCarrier)(nil)

func (c *kafkaHeaderCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *kafkaHeaderCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
