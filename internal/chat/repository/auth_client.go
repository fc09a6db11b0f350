package repository

import (
	"context"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/pkg/database"

	"google.golang.org/grpc"
)

// AuthClient the identity lookup owned by the auth service. A nil user with
// a nil error means the record does not exist.
type AuthClient interface {
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
	UserDetail(ctx context.Context, id string) (*domain.User, error)
	UserDetailByUsername(ctx context.Context, username string) (*domain.User, error)
	UsersDetail(ctx context.Context, ids []string) ([]domain.User, error)
}

type authGRPCClient struct {
	conn *grpc.ClientConn
}

// NewAuthGRPCClient create the auth service client on an open connection
func NewAuthGRPCClient(conn *grpc.ClientConn) AuthClient {
	return &authGRPCClient{conn: conn}
}

const (
	methodVerifyToken          = "/auth.AuthService/VerifyToken"
	methodUserDetail           = "/auth.AuthService/UserDetail"
	methodUserDetailByUserName = "/auth.AuthService/UserDetailByUserName"
	methodUsersDetail          = "/auth.AuthService/UsersDetail"
)

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Valid bool         `json:"valid"`
	User  *domain.User `json:"user"`
}

type userDetailRequest struct {
	ID string `json:"_id"`
}

type userDetailByUserNameRequest struct {
	Username string `json:"username"`
}

type userDetailResponse struct {
	User *domain.User `json:"user"`
}

type usersDetailRequest struct {
	IDs []string `json:"_ids"`
}

type usersDetailResponse struct {
	Users []domain.User `json:"users"`
}

func (c *authGRPCClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(database.JSONCodecName))
}

func (c *authGRPCClient) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	var resp verifyTokenResponse
	if err := c.invoke(ctx, methodVerifyToken, &verifyTokenRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, nil
	}
	return resp.User, nil
}

func (c *authGRPCClient) UserDetail(ctx context.Context, id string) (*domain.User, error) {
	var resp userDetailResponse
	if err := c.invoke(ctx, methodUserDetail, &userDetailRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *authGRPCClient) UserDetailByUsername(ctx context.Context, username string) (*domain.User, error) {
	var resp userDetailResponse
	if err := c.invoke(ctx, methodUserDetailByUserName, &userDetailByUserNameRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *authGRPCClient) UsersDetail(ctx context.Context, ids []string) ([]domain.User, error) {
	var resp usersDetailResponse
	if err := c.invoke(ctx, methodUsersDetail, &usersDetailRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
