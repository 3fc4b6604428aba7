package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/registry"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message types, carried in the "type" field of every message
const (
	TypeStatus         = "status"
	TypeStatusResponse = "status_response"
	TypeError          = "error"
)

// maxMessageSize bounds a single frame
const maxMessageSize = 1 << 20

// NewStatusMessage creates a status query
func NewStatusMessage() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"type": TypeStatus,
	})
}

// NewErrorMessage creates an error response
func NewErrorMessage(errMsg string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"type":  TypeError,
		"error": errMsg,
	})
}

// NewStatusResponseMessage encodes a client status
func NewStatusResponseMessage(st registry.Status) (*structpb.Struct, error) {
	sessions := make([]interface{}, 0, len(st.Sessions))
	for _, s := range st.Sessions {
		sessions = append(sessions, map[string]interface{}{
			"global":        s.Global,
			"output":        s.Output,
			"configured":    s.Configured,
			"state":         s.State,
			"last_serial":   s.LastSerial,
			"rounds":        s.Rounds,
			"main_amount":   s.Params.MainAmount,
			"main_factor":   s.Params.MainFactor,
			"view_padding":  s.Params.ViewPadding,
			"outer_padding": s.Params.OuterPadding,
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"type":            TypeStatusResponse,
		"namespace":       st.Namespace,
		"layout_manager":  st.LayoutManager,
		"options_manager": st.OptionsManager,
		"synced":          st.Synced,
		"sessions":        sessions,
	})
}

// MessageType returns the type field of msg
func MessageType(msg *structpb.Struct) string {
	return msg.GetFields()["type"].GetStringValue()
}

// GetErrorResponse extracts the error text of an error message
func GetErrorResponse(msg *structpb.Struct) (string, error) {
	if MessageType(msg) != TypeError {
		return "", fmt.Errorf("message is not an error response: %q", MessageType(msg))
	}
	return msg.GetFields()["error"].GetStringValue(), nil
}

// GetStatusResponse decodes a status response
func GetStatusResponse(msg *structpb.Struct) (*registry.Status, error) {
	if MessageType(msg) != TypeStatusResponse {
		return nil, fmt.Errorf("message is not a status response: %q", MessageType(msg))
	}

	f := msg.GetFields()
	st := &registry.Status{
		Namespace:      f["namespace"].GetStringValue(),
		LayoutManager:  f["layout_manager"].GetBoolValue(),
		OptionsManager: f["options_manager"].GetBoolValue(),
		Synced:         f["synced"].GetBoolValue(),
	}
	for _, v := range f["sessions"].GetListValue().GetValues() {
		s := v.GetStructValue().GetFields()
		st.Sessions = append(st.Sessions, registry.SessionStatus{
			Global:     uint32(s["global"].GetNumberValue()),
			Output:     s["output"].GetStringValue(),
			Configured: s["configured"].GetBoolValue(),
			State:      s["state"].GetStringValue(),
			LastSerial: uint32(s["last_serial"].GetNumberValue()),
			Rounds:     uint64(s["rounds"].GetNumberValue()),
			Params: layout.Params{
				MainAmount:   uint32(s["main_amount"].GetNumberValue()),
				MainFactor:   s["main_factor"].GetNumberValue(),
				ViewPadding:  uint32(s["view_padding"].GetNumberValue()),
				OuterPadding: uint32(s["outer_padding"].GetNumberValue()),
			},
		})
	}
	return st, nil
}

// readMessage reads one length-prefixed protobuf message
func readMessage(r io.Reader) (*structpb.Struct, error) {
	// Read message length (4 bytes, big endian)
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > maxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if MessageType(msg) == "" {
		return nil, errors.New("message without type")
	}

	return msg, nil
}

// writeMessage writes one length-prefixed protobuf message
func writeMessage(w io.Writer, msg *structpb.Struct) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Write message length (4 bytes, big endian)
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}

	return nil
}
