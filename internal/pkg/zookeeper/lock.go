// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	lockRoot = "/fulfillment/locks" // 所有分布式锁的根节点
)

// Connect 建立 ZooKeeper 会话并等待连接成功。
func Connect(servers []string, sessionTimeout time.Duration) (*zk.Conn, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrapf(err, "connect zookeeper %v", servers)
	}
	deadline := time.After(sessionTimeout)
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				return conn, nil
			}
		case <-deadline:
			conn.Close()
			return nil, errors.Errorf("zookeeper session not established within %s", sessionTimeout)
		}
	}
}

// DistributedLock 基于临时顺序节点的互斥锁。
type DistributedLock struct {
	conn        *zk.Conn
	path        string        // 锁路径，例如 /fulfillment/locks/outbox-order-service
	lockNode    string        // 获取锁后自己创建的节点
	waitTimeout time.Duration // 单次等待前驱节点的超时
}

// NewDistributedLock 创建锁并确保锁路径存在。
func NewDistributedLock(conn *zk.Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	if err := ensurePath(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath, waitTimeout: 30 * time.Second}, nil
}

func ensurePath(conn *zk.Conn, path string) error {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	current := ""
	for _, p := range parts {
		current += "/" + p
		_, err := conn.Create(current, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "create lock node %s", current)
		}
	}
	return nil
}

// Lock 获取锁，获取不到则阻塞等待，超过 waitTimeout 返回错误。
func (l *DistributedLock) Lock() error {
	if l.lockNode == "" {
		// 临时顺序节点: /fulfillment/locks/<resource>/lock-0000000001
		nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", nil, zk.WorldACL(zk.PermAll))
		if err != nil {
			return fmt.Errorf("failed to create sequential node: %w", err)
		}
		l.lockNode = nodePath
	}
	myNodeName := l.lockNode[strings.LastIndex(l.lockNode, "/")+1:]

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		// protected 节点带有 _c_<guid>- 前缀，按序号排序
		sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })

		idx := -1
		for i, child := range children {
			if child == myNodeName {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			// 会话过期导致节点丢失
			l.lockNode = ""
			return errors.New("lock node disappeared, session may have expired")
		case idx == 0:
			log.Debug().Str("lock", l.path).Msg("distributed lock acquired")
			return nil
		}

		prevNodePath := l.path + "/" + children[idx-1]
		exists, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			continue
		}

		select {
		case <-eventChan:
			// 前驱节点变化，重新竞争
		case <-time.After(l.waitTimeout):
			// 保留自己的节点，下次 Lock 继续排队
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}

func sequence(node string) string {
	if i := strings.LastIndex(node, "-"); i >= 0 {
		return node[i+1:]
	}
	return node
}
