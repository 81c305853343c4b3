package rpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/replication"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// handler adapts a replication.Contract to ReplicationServer.
type handler struct {
	svc    replication.Contract
	logger logging.Logger
}

var _ ReplicationServer = (*handler)(nil)

// toStatus maps a contract error onto a gRPC status.
func (h *handler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, replication.ErrClearDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	default:
		role, _ := PeerRoleFromContext(ctx)
		h.logger.Error(ctx, "request failed", "method", method, "peer_role", role, "error", err)
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}

func (h *handler) Authenticate(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	a, err := unpackArgs(req, argAccount, argSecret)
	if err != nil {
		return nil, h.toStatus(ctx, MethodAuthenticate, err)
	}
	username, err := h.svc.Authenticate(ctx, a[0], a[1])
	if err != nil {
		return nil, h.toStatus(ctx, MethodAuthenticate, err)
	}
	return wrapperspb.String(username), nil
}

func (h *handler) CreateUser(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	a, err := unpackArgs(req, argUsername, argAccount, argSecret)
	if err != nil {
		return nil, h.toStatus(ctx, MethodCreateUser, err)
	}
	ok, err := h.svc.CreateUser(ctx, a[0], a[1], a[2])
	if err != nil {
		return nil, h.toStatus(ctx, MethodCreateUser, err)
	}
	return wrapperspb.Bool(ok), nil
}

func (h *handler) DeleteUser(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	a, err := unpackArgs(req, argUsername)
	if err != nil {
		return nil, h.toStatus(ctx, MethodDeleteUser, err)
	}
	if err := h.svc.DeleteUser(ctx, a[0]); err != nil {
		return nil, h.toStatus(ctx, MethodDeleteUser, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) ChangeSecret(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	a, err := unpackArgs(req, argUsername, argSecret)
	if err != nil {
		return nil, h.toStatus(ctx, MethodChangeSecret, err)
	}
	if err := h.svc.ChangeSecret(ctx, a[0], a[1]); err != nil {
		return nil, h.toStatus(ctx, MethodChangeSecret, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) ListAllRecords(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	tuples, err := h.svc.ListAllRecords(ctx)
	if err != nil {
		return nil, h.toStatus(ctx, MethodListAllRecords, err)
	}
	return packTuples(tuples), nil
}

func (h *handler) ClearAllRecords(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := h.svc.ClearAllRecords(ctx); err != nil {
		return nil, h.toStatus(ctx, MethodClearAllRecords, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) NotifyUserCreated(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	a, err := unpackArgs(req, argUsername, argAccount, argSecret)
	if err != nil {
		return nil, h.toStatus(ctx, MethodNotifyUserCreated, err)
	}
	if err := h.svc.NotifyUserCreated(ctx, a[0], a[1], a[2]); err != nil {
		return nil, h.toStatus(ctx, MethodNotifyUserCreated, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) NotifyUserDeleted(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	a, err := unpackArgs(req, argUsername)
	if err != nil {
		return nil, h.toStatus(ctx, MethodNotifyUserDeleted, err)
	}
	if err := h.svc.NotifyUserDeleted(ctx, a[0]); err != nil {
		return nil, h.toStatus(ctx, MethodNotifyUserDeleted, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) NotifySecretChanged(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	a, err := unpackArgs(req, argUsername, argSecret)
	if err != nil {
		return nil, h.toStatus(ctx, MethodNotifySecretChanged, err)
	}
	if err := h.svc.NotifySecretChanged(ctx, a[0], a[1]); err != nil {
		return nil, h.toStatus(ctx, MethodNotifySecretChanged, err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) AccountExists(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	a, err := unpackArgs(req, argAccount)
	if err != nil {
		return nil, h.toStatus(ctx, MethodAccountExists, err)
	}
	ok, err := h.svc.AccountExists(ctx, a[0])
	if err != nil {
		return nil, h.toStatus(ctx, MethodAccountExists, err)
	}
	return wrapperspb.Bool(ok), nil
}
