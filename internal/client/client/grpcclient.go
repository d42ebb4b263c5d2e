package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gabenodland/trace-sub002/internal/client/models"
	"github.com/gabenodland/trace-sub002/internal/common"
	"github.com/gabenodland/trace-sub002/internal/rpc"
)

// GRPCClient implements Client over the JournalService gRPC surface.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	// tokenMu guards the token pair: autosaves and interactive commands
	// issue RPCs concurrently, and a refresh rewrites both tokens.
	tokenMu      sync.Mutex
	accessToken  string
	refreshToken string
}

func (c *GRPCClient) tokens() (access, refresh string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *GRPCClient) setTokens(access, refresh string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

func NewJournalClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// tokenExpired checks the access token's exp claim without verifying the
// signature; verification is the server's job, this is only a hint to
// refresh proactively instead of burning a round trip.
func tokenExpired(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	access, refresh := c.tokens()
	if tokenExpired(access) && refresh != "" {
		// a failed refresh falls through to the normal path
		if c.refresh(ctx) == nil {
			access, refresh = c.tokens()
		}
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return err
	}
	if st.Message() != common.ErrTokenExpired.Error() || refresh == "" {
		return err
	}

	if rerr := c.refresh(ctx); rerr != nil {
		return err
	}

	access, _ = c.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (c *GRPCClient) refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	in, err := rpc.ToStruct(rpc.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, rpc.FullMethod(rpc.MethodRefreshToken), in, out); err != nil {
		return err
	}
	var tokens rpc.TokenResponse
	if err := rpc.FromStruct(out, &tokens); err != nil {
		return err
	}
	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

// invoke is the shared unary call path: encode, call, decode, map errors.
func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := rpc.ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, rpc.FullMethod(method), in, out); err != nil {
		return c.mapError(err)
	}
	if resp == nil {
		return nil
	}
	return rpc.FromStruct(out, resp)
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrNotFound
	case codes.FailedPrecondition, codes.Aborted:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (c *GRPCClient) Register(ctx context.Context, username, password string) error {
	var tokens rpc.TokenResponse
	if err := c.invoke(ctx, rpc.MethodRegister, rpc.RegisterRequest{Username: username, Password: password}, &tokens); err != nil {
		return err
	}
	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

func (c *GRPCClient) Login(ctx context.Context, username, password string) error {
	var tokens rpc.TokenResponse
	if err := c.invoke(ctx, rpc.MethodLogin, rpc.LoginRequest{Username: username, Password: password}, &tokens); err != nil {
		return err
	}
	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var resp rpc.PingResponse
	if err := c.invoke(ctx, rpc.MethodPing, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) CreateRecord(ctx context.Context, fields models.RecordFields) (string, int64, error) {
	var resp rpc.CreateEntryResponse
	if err := c.invoke(ctx, rpc.MethodCreateEntry, rpc.CreateEntryRequest{Fields: fields}, &resp); err != nil {
		return "", 0, err
	}
	return resp.ID, resp.Version, nil
}

func (c *GRPCClient) UpdateRecord(ctx context.Context, id string, baseVersion int64, fields models.RecordFields) (int64, error) {
	req := rpc.UpdateEntryRequest{ID: id, BaseVersion: baseVersion, Fields: fields}
	var resp rpc.UpdateEntryResponse
	if err := c.invoke(ctx, rpc.MethodUpdateEntry, req, &resp); err != nil {
		return 0, err
	}
	return resp.Version, nil
}

func (c *GRPCClient) DeleteRecord(ctx context.Context, id string) error {
	return c.invoke(ctx, rpc.MethodDeleteEntry, rpc.DeleteEntryRequest{ID: id}, nil)
}

func (c *GRPCClient) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var resp rpc.GetEntryResponse
	err := c.invoke(ctx, rpc.MethodGetEntry, rpc.GetEntryRequest{ID: id}, &resp)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Record, nil
}

func (c *GRPCClient) PersistAttachmentRecord(ctx context.Context, att models.Attachment) error {
	return c.invoke(ctx, rpc.MethodCreateAttachment, rpc.CreateAttachmentRequest{Attachment: att}, nil)
}

func (c *GRPCClient) ListAttachments(ctx context.Context, entryID string) ([]models.Attachment, error) {
	var resp rpc.ListAttachmentsResponse
	if err := c.invoke(ctx, rpc.MethodListAttachments, rpc.ListAttachmentsRequest{EntryID: entryID}, &resp); err != nil {
		return nil, err
	}
	return resp.Attachments, nil
}

func (c *GRPCClient) Watch(ctx context.Context, device string) (<-chan *models.Record, error) {
	in, err := rpc.ToStruct(rpc.WatchRequest{Device: device})
	if err != nil {
		return nil, err
	}

	access, _ := c.tokens()
	ctx = withAccessToken(ctx, access)
	stream, err := c.conn.NewStream(ctx, &rpc.WatchStreamDesc, rpc.FullMethod(rpc.MethodWatchEntries))
	if err != nil {
		return nil, c.mapError(err)
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, c.mapError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, c.mapError(err)
	}

	ch := make(chan *models.Record)
	go func() {
		defer close(ch)
		for {
			out := new(structpb.Struct)
			if err := stream.RecvMsg(out); err != nil {
				return
			}
			var ev rpc.WatchEvent
			if err := rpc.FromStruct(out, &ev); err != nil || ev.Record == nil {
				continue
			}
			select {
			case ch <- ev.Record:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
