// internal/service/order/infrastructure/adapter/status_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"primeshop/internal/pkg/mq"
	"primeshop/internal/service/order/domain"
)

// StatusEventKafkaAdapter 把状态流转事件发布到 Kafka。
// 以订单 ID 作为消息 key，同一订单的事件保持分区内有序。
type StatusEventKafkaAdapter struct {
	writer *kafka.Writer
}

func NewStatusEventKafkaAdapter(writer *kafka.Writer) *StatusEventKafkaAdapter {
	return &StatusEventKafkaAdapter{writer: writer}
}

var _ domain.StatusEventProducer = (*StatusEventKafkaAdapter)(nil)

func (a *StatusEventKafkaAdapter) PublishStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal status event")
	}
	key := []byte(strconv.FormatInt(event.OrderID, 10))
	return mq.ProduceMessage(ctx, a.writer, key, payload)
}

// Close 关闭底层的 Kafka writer。
func (a *StatusEventKafkaAdapter) Close() error {
	return a.writer.Close()
}
