package bootstrap

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/nacos"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/zookeeper"
	"gorm.io/gorm"
)

// Messaging 是一个服务的 Kafka 出站与入站装配。
type Messaging struct {
	Publisher *mq.KafkaPublisher
	Consumers *ConsumerFactory
}

// NewMessaging 创建共享的 writer，失败消息经同一个 writer 转入死信队列。
func NewMessaging(cfg *Config, service string, inbox mq.Inbox) *Messaging {
	writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers)
	publisher := mq.NewKafkaPublisher(writer)
	return &Messaging{
		Publisher: publisher,
		Consumers: NewConsumerFactory(cfg, service, inbox, mq.NewFailureHandler(publisher)),
	}
}

func (m *Messaging) Close() error {
	return m.Publisher.Close()
}

// ConsumerFactory 按统一的配置为每个 (服务, 队列) 创建独立消费组。
type ConsumerFactory struct {
	cfg     *Config
	service string
	inbox   mq.Inbox
	failure *mq.FailureHandler
}

func NewConsumerFactory(cfg *Config, service string, inbox mq.Inbox, failure *mq.FailureHandler) *ConsumerFactory {
	return &ConsumerFactory{cfg: cfg, service: service, inbox: inbox, failure: failure}
}

// Consumer 返回订阅 topic 的后台 worker。
func (f *ConsumerFactory) Consumer(topic string, handler mq.HandlerFunc) Worker {
	reader := mq.NewKafkaReader(f.cfg.Infra.Kafka.Brokers, f.service+"."+topic, topic, mq.ReaderOptions{Prefetch: f.cfg.Consumer.Prefetch})
	opts := []mq.ConsumerOption{
		mq.WithRetryPolicy(mq.RetryPolicy{
			MaxAttempts:    f.cfg.Consumer.MaxAttempts,
			InitialBackoff: f.cfg.Consumer.InitialBackoff,
			MaxBackoff:     f.cfg.Consumer.MaxBackoff,
		}),
	}
	if f.inbox != nil {
		opts = append(opts, mq.WithInbox(f.inbox))
	}
	if f.failure != nil {
		opts = append(opts, mq.WithFailureHandler(f.failure))
	}
	return mq.NewConsumerAdapter(f.service, topic, reader, handler, opts...).Run
}

// NewOutboxRelay 创建 relay；配置了 ZooKeeper 时以分布式锁选主。
// 返回的 close 函数用于关闭 ZooKeeper 连接。
func NewOutboxRelay(cfg *Config, service string, db *gorm.DB, publisher mq.Publisher) (*outbox.Relay, func() error, error) {
	store := outbox.NewStore(db, cfg.Outbox.Lease)
	noop := func() error { return nil }
	if len(cfg.Infra.Zookeeper.Servers) == 0 {
		return outbox.NewRelay(service, store, publisher, cfg.Outbox), noop, nil
	}

	conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
	if err != nil {
		return nil, noop, err
	}
	lock, err := zookeeper.NewDistributedLock(conn, "outbox-"+service)
	if err != nil {
		conn.Close()
		return nil, noop, err
	}
	closeFn := func() error {
		conn.Close()
		return nil
	}
	return outbox.NewRelay(service, store, publisher, cfg.Outbox, outbox.WithLeaderLock(lock)), closeFn, nil
}

// NewNacosClient 未启用 Nacos 时返回 nil。
func NewNacosClient(cfg *Config) (*nacos.Client, error) {
	if !cfg.Infra.Nacos.Enabled {
		return nil, nil
	}
	return nacos.NewNacosClient(cfg.Infra.Nacos)
}

// NewResolver 优先使用 Nacos 发现，失败时回退到静态地址。
func NewResolver(nc *nacos.Client, static map[string]string) httpclient.Resolver {
	if nc == nil {
		return httpclient.StaticResolver(static)
	}
	return httpclient.FallbackResolver{nc, httpclient.StaticResolver(static)}
}
