// Package rabbitmq содержит подключение к RabbitMQ и публикацию событий песочницы.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// TransactionsExchange — exchange, в который публикуются события транзакций.
const TransactionsExchange = "transactions"

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// TransactionQueues возвращает очереди для событий транзакций.
func TransactionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "transaction.completed", RoutingKey: "completed"},
	}
}

// Connect подключается к брокеру, повторяя попытку retries раз с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	err := fmt.Errorf("no connection attempts made")

	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
