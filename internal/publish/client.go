package publish

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/banshee-data/cloudreplay/internal/cloud"
)

// Client subscribes to a replay feed. Used by downstream consumers and by
// the feed's own integration tests.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a replay feed server.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Subscribe opens a stream on the named channel.
func (c *Client) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	desc := &grpc.StreamDesc{
		StreamName:    subscribeStreamName,
		ServerStreams: true,
	}
	stream, err := c.conn.NewStream(ctx, desc, SubscribeMethod)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.SendMsg(&SubscribeRequest{Channel: channel}); err != nil {
		return nil, fmt.Errorf("send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close send: %w", err)
	}
	return &Subscription{stream: stream}, nil
}

// Subscription is an open frame stream.
type Subscription struct {
	stream grpc.ClientStream
}

// Recv blocks until the next frame arrives.
func (s *Subscription) Recv() (*cloud.Message, error) {
	msg := new(cloud.Message)
	if err := s.stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
