// Package rpc describes the JournalService gRPC surface shared by client
// and server. The wire format is schema-light: payloads travel as the
// protobuf well-known Struct type and are mapped to typed DTOs through a
// JSON round-trip, so the service description lives in plain Go and needs
// no generation step.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// ToStruct converts any JSON-marshalable value into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("wire encode: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("wire encode: %w", err)
	}
	return s, nil
}

// FromStruct fills dst (a pointer) from a protobuf Struct.
func FromStruct(s *structpb.Struct, dst any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("wire decode: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("wire decode: %w", err)
	}
	return nil
}

// Request/response DTOs. Field names are the wire contract; both sides
// decode through FromStruct.

type CreateEntryRequest struct {
	Fields models.RecordFields `json:"fields"`
}

type CreateEntryResponse struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

type UpdateEntryRequest struct {
	ID          string              `json:"id"`
	BaseVersion int64               `json:"base_version"`
	Fields      models.RecordFields `json:"fields"`
}

type UpdateEntryResponse struct {
	Version int64 `json:"version"`
}

type DeleteEntryRequest struct {
	ID     string `json:"id"`
	Device string `json:"device,omitempty"`
}

type GetEntryRequest struct {
	ID string `json:"id"`
}

type GetEntryResponse struct {
	Record *models.Record `json:"record"`
}

type WatchRequest struct {
	// Device lets the server annotate logs; echoes are still delivered and
	// filtered client-side, where the suppression rules live.
	Device string `json:"device,omitempty"`
}

type WatchEvent struct {
	Record *models.Record `json:"record"`
}

type CreateAttachmentRequest struct {
	Attachment models.Attachment `json:"attachment"`
}

type ListAttachmentsRequest struct {
	EntryID string `json:"entry_id"`
}

type ListAttachmentsResponse struct {
	Attachments []models.Attachment `json:"attachments"`
}

// Register and Login both answer with a TokenResponse, so a fresh
// account is logged in without a second round trip.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PingResponse struct {
	Status string `json:"status"`
}
