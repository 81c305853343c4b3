package rpc

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/replication"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is the remote side of the contract.
type Client struct {
	cc grpc.ClientConnInterface
}

var _ replication.Contract = (*Client)(nil)

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	return mapError(c.cc.Invoke(ctx, FullMethod(method), in, out))
}

func (c *Client) Authenticate(ctx context.Context, account, secret string) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.invoke(ctx, MethodAuthenticate, packArgs(argAccount, account, argSecret, secret), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) CreateUser(ctx context.Context, username, account, secret string) (bool, error) {
	out := &wrapperspb.BoolValue{}
	in := packArgs(argUsername, username, argAccount, account, argSecret, secret)
	if err := c.invoke(ctx, MethodCreateUser, in, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.invoke(ctx, MethodDeleteUser, packArgs(argUsername, username), &emptypb.Empty{})
}

func (c *Client) ChangeSecret(ctx context.Context, username, secret string) error {
	return c.invoke(ctx, MethodChangeSecret, packArgs(argUsername, username, argSecret, secret), &emptypb.Empty{})
}

func (c *Client) ListAllRecords(ctx context.Context) ([]string, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, MethodListAllRecords, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return unpackTuples(out), nil
}

func (c *Client) ClearAllRecords(ctx context.Context) error {
	return c.invoke(ctx, MethodClearAllRecords, &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *Client) NotifyUserCreated(ctx context.Context, username, account, secret string) error {
	in := packArgs(argUsername, username, argAccount, account, argSecret, secret)
	return c.invoke(ctx, MethodNotifyUserCreated, in, &emptypb.Empty{})
}

func (c *Client) NotifyUserDeleted(ctx context.Context, username string) error {
	return c.invoke(ctx, MethodNotifyUserDeleted, packArgs(argUsername, username), &emptypb.Empty{})
}

func (c *Client) NotifySecretChanged(ctx context.Context, username, secret string) error {
	return c.invoke(ctx, MethodNotifySecretChanged, packArgs(argUsername, username, argSecret, secret), &emptypb.Empty{})
}

func (c *Client) AccountExists(ctx context.Context, account string) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, MethodAccountExists, packArgs(argAccount, account), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
