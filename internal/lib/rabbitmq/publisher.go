package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует message в JSON и публикует его в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события в один exchange.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создаёт Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish отправляет событие с ключом маршрутизации routingKey.
func (p *Publisher) Publish(routingKey string, message any) error {
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}

// NopPublisher отбрасывает события. Используется, когда брокер не настроен.
type NopPublisher struct{}

// Publish ничего не делает.
func (NopPublisher) Publish(string, any) error { return nil }
