package diag

import (
	"errors"
	"fmt"

	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// A response from the guest is one frame: a kind byte followed by either the
// marshalled response message or a marshalled google.rpc.Status.
const (
	frameOK byte = iota
	frameStatus
)

func protoMarshalAppend(data []byte, v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return data, fmt.Errorf("proto: error marshalling data: expected proto.Message, got %T", v)
	}
	data, err := proto.MarshalOptions{}.MarshalAppend(data, msg)
	if err != nil {
		return data, fmt.Errorf("proto: error marshalling data: %w", err)
	}
	return data, nil
}

func protoUnmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("proto: error unmarshalling data: expected proto.Message, got %T", v)
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("proto: error unmarshalling data: %w", err)
	}
	return nil
}

func appendResponseFrame(data []byte, resp any) ([]byte, error) {
	return protoMarshalAppend(append(data, frameOK), resp)
}

func appendStatusFrame(data []byte, st *status.Status) ([]byte, error) {
	return proto.MarshalOptions{}.MarshalAppend(append(data, frameStatus), st.Proto())
}

// decodeResponseFrame unmarshals a successful response into resp, or
// returns the status error the guest responded with.
func decodeResponseFrame(frame []byte, resp proto.Message) error {
	if len(frame) == 0 {
		return errors.New("empty response frame")
	}

	switch frame[0] {
	case frameOK:
		return protoUnmarshal(frame[1:], resp)
	case frameStatus:
		var st spb.Status
		if err := proto.Unmarshal(frame[1:], &st); err != nil {
			return fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return status.FromProto(&st).Err()
	default:
		return fmt.Errorf("unknown response frame kind %d", frame[0])
	}
}
