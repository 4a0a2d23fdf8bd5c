// Package codec serializes a simulation's full state into an opaque byte
// sequence and restores a simulation from one.
package codec

import (
	"fmt"

	snapshotfb "github.com/cbodonnell/rewind/flatbuffers/snapshot"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is written into every envelope. Hydrate rejects any other version.
const SnapshotVersion uint16 = 1

// Target is a simulation whose state can be captured and replaced.
// UnmarshalState must be all-or-nothing: on error the target keeps its
// previous state.
type Target interface {
	Frame() uint64
	MarshalState() ([]byte, error)
	UnmarshalState(b []byte) error
}

// Codec dumps and hydrates simulation state.
type Codec interface {
	// Dump returns a self-contained serialization of the target.
	Dump(t Target) ([]byte, error)
	// Hydrate replaces the target's state with the one in b.
	// Malformed or foreign bytes return a *DecodeError.
	Hydrate(t Target, b []byte) error
}

// SnapshotCodec wraps the target's state payload in a flatbuffers envelope
// and compresses it with zstd.
type SnapshotCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSnapshotCodec creates a SnapshotCodec. The returned codec is safe for
// concurrent use.
func NewSnapshotCodec() (*SnapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	return &SnapshotCodec{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (c *SnapshotCodec) Dump(t Target) ([]byte, error) {
	payload, err := t.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	builder := flatbuffers.NewBuilder(len(payload) + 64)
	payloadOffset := builder.CreateByteVector(payload)
	snapshotfb.SnapshotStart(builder)
	snapshotfb.SnapshotAddVersion(builder, SnapshotVersion)
	snapshotfb.SnapshotAddFrame(builder, t.Frame())
	snapshotfb.SnapshotAddPayload(builder, payloadOffset)
	snapshotOffset := snapshotfb.SnapshotEnd(builder)
	snapshotfb.FinishSnapshotBuffer(builder, snapshotOffset)

	return c.encoder.EncodeAll(builder.FinishedBytes(), nil), nil
}

func (c *SnapshotCodec) Hydrate(t Target, b []byte) error {
	payload, err := c.open(b)
	if err != nil {
		return err
	}
	if err := t.UnmarshalState(payload); err != nil {
		return &DecodeError{Reason: "invalid state payload", Err: err}
	}
	return nil
}

func (c *SnapshotCodec) open(b []byte) ([]byte, error) {
	raw, err := c.decompress(b)
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = readEnvelope(raw, func(s *snapshotfb.Snapshot) {
		payload = s.PayloadBytes()
	})
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, &DecodeError{Reason: "empty state payload"}
	}
	return payload, nil
}

func (c *SnapshotCodec) decompress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, &DecodeError{Reason: "empty snapshot"}
	}
	raw, err := c.decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, &DecodeError{Reason: "failed to decompress snapshot", Err: err}
	}
	return raw, nil
}

// readEnvelope validates the identifier and version before handing the
// table to fn. Out of range offsets in a corrupt buffer panic inside the
// flatbuffers accessors, so they are recovered here.
func readEnvelope(raw []byte, fn func(s *snapshotfb.Snapshot)) (err error) {
	if !snapshotfb.SnapshotBufferHasIdentifier(raw) {
		return &DecodeError{Reason: "unknown snapshot identifier"}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &DecodeError{Reason: fmt.Sprintf("corrupt snapshot envelope: %v", r)}
		}
	}()
	s := snapshotfb.GetRootAsSnapshot(raw, 0)
	if v := s.Version(); v != SnapshotVersion {
		return &DecodeError{Reason: fmt.Sprintf("unsupported snapshot version %d", v)}
	}
	fn(s)
	return nil
}
