package publish

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// The feed service is described by hand rather than generated: it has a
// single server-streaming method and its payloads travel through the
// package Codec, so there are no protobuf stubs to generate.

const (
	serviceName         = "cloudreplay.CloudFeed"
	subscribeStreamName = "Subscribe"

	// SubscribeMethod is the full method path clients dial.
	SubscribeMethod = "/" + serviceName + "/" + subscribeStreamName
)

// feedServer is the handler contract checked by grpc at registration.
type feedServer interface {
	subscribe(req *SubscribeRequest, stream grpc.ServerStream) error
}

var feedServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*feedServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    subscribeStreamName,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "cloudfeed",
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(SubscribeRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(feedServer).subscribe(req, stream)
}

// subscribe implements the Subscribe stream: validate the channel name,
// register the client, then forward broadcast frames until the client
// disconnects or the publisher stops.
func (p *Publisher) subscribe(req *SubscribeRequest, stream grpc.ServerStream) error {
	if req.Channel != p.config.Channel {
		return status.Errorf(codes.NotFound, "unknown channel %q (registered: %q)",
			req.Channel, p.config.Channel)
	}

	client, err := p.addClient()
	if err != nil {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	defer p.removeClient(client.id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case msg := <-client.frameCh:
			if err := stream.SendMsg(msg); err != nil {
				p.logf("send to %s failed: %v", client.id, err)
				return err
			}
		}
	}
}
