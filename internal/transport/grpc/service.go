package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "inboxsync.v1.InboxSync"

const (
	methodCreateContact     = "/" + ServiceName + "/CreateContact"
	methodEnter             = "/" + ServiceName + "/Enter"
	methodSend              = "/" + ServiceName + "/Send"
	methodDispose           = "/" + ServiceName + "/Dispose"
	methodGetMirror         = "/" + ServiceName + "/GetMirror"
	methodDisplayName       = "/" + ServiceName + "/DisplayName"
	methodSubscribeInbox    = "/" + ServiceName + "/SubscribeInbox"
	methodSubscribeMessages = "/" + ServiceName + "/SubscribeMessages"
)

type InboxSyncServer interface {
	CreateContact(context.Context, *CreateContactRequest) (*CreateContactResponse, error)
	Enter(context.Context, *EnterRequest) (*EnterResponse, error)
	Send(context.Context, *SendRequest) (*SendResponse, error)
	Dispose(context.Context, *DisposeRequest) (*DisposeResponse, error)
	GetMirror(context.Context, *GetMirrorRequest) (*GetMirrorResponse, error)
	DisplayName(context.Context, *DisplayNameRequest) (*DisplayNameResponse, error)
	SubscribeInbox(*SubscribeInboxRequest, grpc.ServerStreamingServer[InboxSnapshot]) error
	SubscribeMessages(*SubscribeMessagesRequest, grpc.ServerStreamingServer[Message]) error
}

func unaryHandler[Req, Res any](fullMethod string, call func(InboxSyncServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InboxSyncServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InboxSyncServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamHandler[Req, Res any](call func(InboxSyncServer, *Req, grpc.ServerStreamingServer[Res]) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(Req)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(InboxSyncServer), in, &grpc.GenericServerStream[Req, Res]{ServerStream: stream})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InboxSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateContact", Handler: unaryHandler(methodCreateContact, InboxSyncServer.CreateContact)},
		{MethodName: "Enter", Handler: unaryHandler(methodEnter, InboxSyncServer.Enter)},
		{MethodName: "Send", Handler: unaryHandler(methodSend, InboxSyncServer.Send)},
		{MethodName: "Dispose", Handler: unaryHandler(methodDispose, InboxSyncServer.Dispose)},
		{MethodName: "GetMirror", Handler: unaryHandler(methodGetMirror, InboxSyncServer.GetMirror)},
		{MethodName: "DisplayName", Handler: unaryHandler(methodDisplayName, InboxSyncServer.DisplayName)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SubscribeInbox", Handler: streamHandler(InboxSyncServer.SubscribeInbox), ServerStreams: true},
		{StreamName: "SubscribeMessages", Handler: streamHandler(InboxSyncServer.SubscribeMessages), ServerStreams: true},
	},
	Metadata: "inboxsync/v1/inbox_sync.json",
}

func RegisterInboxSyncServer(s grpc.ServiceRegistrar, srv InboxSyncServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client is the caller side of the InboxSync service over the json codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) CreateContact(ctx context.Context, in *CreateContactRequest, opts ...grpc.CallOption) (*CreateContactResponse, error) {
	out := new(CreateContactResponse)
	return out, c.invoke(ctx, methodCreateContact, in, out, opts)
}

func (c *Client) Enter(ctx context.Context, in *EnterRequest, opts ...grpc.CallOption) (*EnterResponse, error) {
	out := new(EnterResponse)
	return out, c.invoke(ctx, methodEnter, in, out, opts)
}

func (c *Client) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	out := new(SendResponse)
	return out, c.invoke(ctx, methodSend, in, out, opts)
}

func (c *Client) Dispose(ctx context.Context, in *DisposeRequest, opts ...grpc.CallOption) (*DisposeResponse, error) {
	out := new(DisposeResponse)
	return out, c.invoke(ctx, methodDispose, in, out, opts)
}

func (c *Client) GetMirror(ctx context.Context, in *GetMirrorRequest, opts ...grpc.CallOption) (*GetMirrorResponse, error) {
	out := new(GetMirrorResponse)
	return out, c.invoke(ctx, methodGetMirror, in, out, opts)
}

func (c *Client) DisplayName(ctx context.Context, in *DisplayNameRequest, opts ...grpc.CallOption) (*DisplayNameResponse, error) {
	out := new(DisplayNameResponse)
	return out, c.invoke(ctx, methodDisplayName, in, out, opts)
}

func openStream[Req, Res any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Res], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	stream, err := cc.NewStream(ctx, desc, method, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Res]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *Client) SubscribeInbox(ctx context.Context, in *SubscribeInboxRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[InboxSnapshot], error) {
	return openStream[SubscribeInboxRequest, InboxSnapshot](ctx, c.cc, &serviceDesc.Streams[0], methodSubscribeInbox, in, opts)
}

func (c *Client) SubscribeMessages(ctx context.Context, in *SubscribeMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error) {
	return openStream[SubscribeMessagesRequest, Message](ctx, c.cc, &serviceDesc.Streams[1], methodSubscribeMessages, in, opts)
}
