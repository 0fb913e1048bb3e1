package bootstrap

import (
	"net"

	"github.com/pkg/errors"
)

// GetOutboundIP 返回本机对外通信使用的 IP，用于服务注册。
func GetOutboundIP() (string, error) {
	// UDP 不会真正建立连接
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", errors.Wrap(err, "dial udp")
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
