package carrier

import (
	"context"
	"net/url"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain/port"
	"github.com/pkg/errors"
)

// HTTPCarrier 调用外部承运商的 JSON 接口。
type HTTPCarrier struct {
	client  *httpclient.Client
	service string
	name    string
	timeout time.Duration
}

func NewHTTPCarrier(client *httpclient.Client, service, name string, timeout time.Duration) *HTTPCarrier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if name == "" {
		name = service
	}
	return &HTTPCarrier{client: client, service: service, name: name, timeout: timeout}
}

type bookBody struct {
	OrderID string         `json:"orderId"`
	Address domain.Address `json:"address"`
	Items   []domain.Line  `json:"items"`
}

type bookReply struct {
	Accepted       bool   `json:"accepted"`
	TrackingNumber string `json:"trackingNumber"`
	Reason         string `json:"reason"`
}

func (c *HTTPCarrier) Book(ctx context.Context, req port.BookingRequest) (port.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reply bookReply
	if err := c.client.PostJSON(ctx, c.service, "/shipments", bookBody{OrderID: req.OrderID, Address: req.Address, Items: req.Items}, &reply); err != nil {
		return port.Booking{}, errors.Wrap(err, "carrier book")
	}
	if !reply.Accepted {
		return port.Booking{}, &port.RejectionError{Reason: reply.Reason}
	}
	if reply.TrackingNumber == "" {
		return port.Booking{}, errors.New("carrier book: empty tracking number")
	}
	return port.Booking{Carrier: c.name, TrackingNumber: reply.TrackingNumber}, nil
}

func (c *HTTPCarrier) Cancel(ctx context.Context, trackingNumber string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.client.PostJSON(ctx, c.service, "/shipments/"+url.PathEscape(trackingNumber)+"/cancel", struct{}{}, nil)
	return errors.Wrap(err, "carrier cancel")
}
