package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	climodels "github.com/gabenodland/trace-sub002/internal/client/models"
	"github.com/gabenodland/trace-sub002/internal/common"
	"github.com/gabenodland/trace-sub002/internal/rpc"
	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// mapError translates sentinel errors into gRPC status codes. Anything
// unrecognized becomes Internal without leaking details to the client.
func mapError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, common.ErrVersionConflict.Error())
	case errors.Is(err, common.ErrEntryDeleted):
		return status.Error(codes.FailedPrecondition, common.ErrEntryDeleted.Error())
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "authentication failed")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID == "" {
		return "", status.Error(codes.Unauthenticated, "no authenticated user")
	}
	return userID, nil
}

// entryFromFields maps a wire write payload onto the storage model.
func entryFromFields(f climodels.RecordFields) (*models.Entry, error) {
	e := &models.Entry{
		Title:            f.Title,
		Body:             f.Body,
		StreamID:         f.StreamID,
		StreamName:       f.StreamName,
		Status:           string(f.Status),
		EntryType:        f.EntryType,
		DueDate:          f.DueDate,
		Rating:           f.Rating,
		Priority:         f.Priority,
		EntryTime:        f.EntryTime,
		ShowTime:         f.ShowTime,
		Tags:             f.Tags,
		Mentions:         f.Mentions,
		LastEditedDevice: f.Device,
	}
	if f.Location != nil {
		b, err := json.Marshal(f.Location)
		if err != nil {
			return nil, fmt.Errorf("encode location: %w", err)
		}
		e.LocationJSON = string(b)
	}
	return e, nil
}

// recordFromEntry maps the storage model to the wire read model.
func recordFromEntry(e *models.Entry) (*climodels.Record, error) {
	r := &climodels.Record{
		ID:               e.ID,
		Version:          e.Version,
		LastEditedDevice: e.LastEditedDevice,
		UpdatedAt:        e.UpdatedAt,
		Deleted:          e.Deleted,
		Title:            e.Title,
		Body:             e.Body,
		StreamID:         e.StreamID,
		StreamName:       e.StreamName,
		Status:           climodels.EntryStatus(e.Status),
		EntryType:        e.EntryType,
		DueDate:          e.DueDate,
		Rating:           e.Rating,
		Priority:         e.Priority,
		EntryTime:        e.EntryTime,
		ShowTime:         e.ShowTime,
		Tags:             e.Tags,
		Mentions:         e.Mentions,
	}
	if e.LocationJSON != "" {
		var loc climodels.Location
		if err := json.Unmarshal([]byte(e.LocationJSON), &loc); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		r.Location = &loc
	}
	return r, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.RegisterRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pair, err := s.users.Register(ctx, in.Username, in.Password)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.LoginRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pair, err := s.users.Login(ctx, in.Username, in.Password)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.RefreshTokenRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pair, err := s.users.RefreshToken(ctx, in.RefreshToken)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.ToStruct(rpc.PingResponse{Status: "OK"})
}

func (s *GRPCServer) CreateEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.CreateEntryRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	e, err := entryFromFields(in.Fields)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	stored, err := s.entries.Create(ctx, userID, e)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.CreateEntryResponse{ID: stored.ID, Version: stored.Version})
}

func (s *GRPCServer) UpdateEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.UpdateEntryRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	e, err := entryFromFields(in.Fields)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	e.ID = in.ID

	stored, err := s.entries.Update(ctx, userID, e, in.BaseVersion)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.UpdateEntryResponse{Version: stored.Version})
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.DeleteEntryRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.entries.Delete(ctx, userID, in.ID, in.Device); err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(struct{}{})
}

func (s *GRPCServer) GetEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.GetEntryRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	e, err := s.entries.Get(ctx, userID, in.ID)
	if err != nil {
		return nil, mapError(err)
	}

	record, err := recordFromEntry(e)
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(rpc.GetEntryResponse{Record: record})
}

func (s *GRPCServer) CreateAttachment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.CreateAttachmentRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	a := &models.Attachment{
		ID:         in.Attachment.ID,
		EntryID:    in.Attachment.EntryID,
		StorageKey: in.Attachment.StorageKey,
		MimeType:   in.Attachment.MimeType,
		ByteSize:   in.Attachment.ByteSize,
		Width:      in.Attachment.Width,
		Height:     in.Attachment.Height,
		Position:   in.Attachment.Position,
	}
	if err := s.entries.AddAttachment(ctx, userID, a); err != nil {
		return nil, mapError(err)
	}
	return rpc.ToStruct(struct{}{})
}

func (s *GRPCServer) ListAttachments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var in rpc.ListAttachmentsRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	list, err := s.entries.ListAttachments(ctx, userID, in.EntryID)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]climodels.Attachment, 0, len(list))
	for _, a := range list {
		out = append(out, climodels.Attachment{
			ID:         a.ID,
			EntryID:    a.EntryID,
			StorageKey: a.StorageKey,
			MimeType:   a.MimeType,
			ByteSize:   a.ByteSize,
			Width:      a.Width,
			Height:     a.Height,
			Position:   a.Position,
		})
	}
	return rpc.ToStruct(rpc.ListAttachmentsResponse{Attachments: out})
}

func (s *GRPCServer) WatchEntries(req *structpb.Struct, stream rpc.JournalWatchServer) error {
	ctx := stream.Context()
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}

	var in rpc.WatchRequest
	if err := rpc.FromStruct(req, &in); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ch, cancel := s.hub.Subscribe(userID)
	defer cancel()

	s.logger.Info(ctx, "watch stream opened", "user_id", userID, "device", in.Device)
	defer s.logger.Info(context.Background(), "watch stream closed", "user_id", userID, "device", in.Device)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			record, err := recordFromEntry(e)
			if err != nil {
				s.logger.Warn(ctx, "skipping undecodable entry on watch stream", "entry_id", e.ID, "error", err.Error())
				continue
			}
			msg, err := rpc.ToStruct(rpc.WatchEvent{Record: record})
			if err != nil {
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}
