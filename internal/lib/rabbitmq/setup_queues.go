package rabbitmq

// QueueConfig связывает очередь с ключом маршрутизации обменника.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// RoutingSubscriberCreated публикуется после успешной подписки на рассылку.
const RoutingSubscriberCreated = "subscriber.created"

// QueueSubscribers читает cmd/notifier.
const QueueSubscribers = "blog.subscribers"

// GetBlogQueues возвращает очереди, которые объявляются при старте публикатора.
func GetBlogQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueSubscribers, RoutingKey: RoutingSubscriberCreated},
	}
}
