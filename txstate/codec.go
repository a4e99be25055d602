// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/tlv"
)

// An operation record is the operation tag, the varint length of the
// payload and the payload itself, a TLV stream holding the fields of the
// operation.  The explicit length makes every record self-delimiting so a
// reader can always tell a complete record from a truncated one.

// maxPayloadSize bounds the payload of a single record.  It is far above
// any legitimate operation and keeps a corrupt length from allocating
// unbounded memory.
const maxPayloadSize = wire.MaxMessagePayload

const (
	typeOutPointHash  tlv.Type = 1
	typeOutPointIndex tlv.Type = 3
	typeValue         tlv.Type = 5
	typePkScript      tlv.Type = 7
	typeAccount       tlv.Type = 9
	typeBranch        tlv.Type = 11
	typeKeyIndex      tlv.Type = 13
	typeOutputIndex   tlv.Type = 15
	typeWitness       tlv.Type = 17
)

// WriteOperation serializes op as a single record to w.
func WriteOperation(w io.Writer, op Operation) error {
	payload, err := encodePayload(op)
	if err != nil {
		return err
	}

	var buf [8]byte
	if _, err := w.Write([]byte{byte(op.Tag())}); err != nil {
		return err
	}
	if err := tlv.WriteVarInt(w, uint64(len(payload)), &buf); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// EncodeOperation returns op serialized as a single record.
func EncodeOperation(op Operation) ([]byte, error) {
	var b bytes.Buffer
	if err := WriteOperation(&b, op); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// ReadOperation reads the next record from r.  io.EOF is returned only
// when r is exhausted exactly at a record boundary.  Any other failure is a
// *ParseError.
func ReadOperation(r io.Reader) (Operation, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return nil, err
	}

	tag := OpTag(tagByte[0])
	if !tag.known() {
		return nil, parseError(tag, ErrUnknownTag, nil)
	}

	var buf [8]byte
	length, err := tlv.ReadVarInt(r, &buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, parseError(tag, ErrTruncatedRecord, nil)
	case err != nil:
		return nil, parseError(tag, ErrMalformedRecord, err)
	}
	if length > maxPayloadSize {
		return nil, parseError(tag, ErrMalformedRecord,
			fmt.Errorf("payload length %d exceeds maximum %d",
				length, maxPayloadSize))
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, parseError(tag, ErrTruncatedRecord, nil)
		}
		return nil, err
	}

	op, err := decodePayload(tag, payload)
	if err != nil {
		return nil, parseError(tag, ErrMalformedRecord, err)
	}
	return op, nil
}

// DecodeOperation decodes b, which must hold exactly one record.
func DecodeOperation(b []byte) (Operation, error) {
	r := bytes.NewReader(b)
	op, err := ReadOperation(r)
	if errors.Is(err, io.EOF) {
		return nil, parseError(0, ErrTruncatedRecord, nil)
	}
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, parseError(op.Tag(), ErrMalformedRecord,
			fmt.Errorf("%d trailing bytes", r.Len()))
	}
	return op, nil
}

func encodePayload(op Operation) ([]byte, error) {
	var records []tlv.Record
	switch op := op.(type) {
	case AddInput:
		hash := [32]byte(op.Input.OutPoint.Hash)
		index := op.Input.OutPoint.Index
		value := uint64(op.Input.Value)
		script := op.Input.PkScript
		path := op.Input.KeyPath
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typeOutPointHash, &hash),
			tlv.MakePrimitiveRecord(typeOutPointIndex, &index),
			tlv.MakePrimitiveRecord(typeValue, &value),
			tlv.MakePrimitiveRecord(typePkScript, &script),
			tlv.MakePrimitiveRecord(typeAccount, &path.Account),
			tlv.MakePrimitiveRecord(typeBranch, &path.Branch),
			tlv.MakePrimitiveRecord(typeKeyIndex, &path.Index),
		}

	case RemoveInput:
		hash := [32]byte(op.OutPoint.Hash)
		index := op.OutPoint.Index
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typeOutPointHash, &hash),
			tlv.MakePrimitiveRecord(typeOutPointIndex, &index),
		}

	case AddOutput:
		value := uint64(op.Output.Value)
		script := op.Output.PkScript
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typeValue, &value),
			tlv.MakePrimitiveRecord(typePkScript, &script),
		}

	case RemoveOutput:
		index := op.Index
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typeOutputIndex, &index),
		}

	case AddChange:
		script := op.Change.PkScript
		path := op.Change.KeyPath
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typePkScript, &script),
			tlv.MakePrimitiveRecord(typeAccount, &path.Account),
			tlv.MakePrimitiveRecord(typeBranch, &path.Branch),
			tlv.MakePrimitiveRecord(typeKeyIndex, &path.Index),
		}

	case RemoveChange:
		script := op.PkScript
		records = []tlv.Record{
			tlv.MakePrimitiveRecord(typePkScript, &script),
		}

	case Finalize:
		return nil, nil

	case Signature:
		witness := op.Witness
		records = []tlv.Record{witnessRecord(&witness)}

	default:
		return nil, fmt.Errorf("cannot encode operation %T", op)
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decodePayload(tag OpTag, payload []byte) (Operation, error) {
	var (
		hash    [32]byte
		index   uint32
		value   uint64
		script  []byte
		path    KeyPath
		outIdx  uint32
		witness wire.TxWitness
	)

	switch tag {
	case TagAddInput:
		err := decodeStream(payload, []tlv.Type{
			typeOutPointHash, typeOutPointIndex, typeValue,
			typePkScript, typeAccount, typeBranch, typeKeyIndex,
		},
			tlv.MakePrimitiveRecord(typeOutPointHash, &hash),
			tlv.MakePrimitiveRecord(typeOutPointIndex, &index),
			tlv.MakePrimitiveRecord(typeValue, &value),
			tlv.MakePrimitiveRecord(typePkScript, &script),
			tlv.MakePrimitiveRecord(typeAccount, &path.Account),
			tlv.MakePrimitiveRecord(typeBranch, &path.Branch),
			tlv.MakePrimitiveRecord(typeKeyIndex, &path.Index),
		)
		if err != nil {
			return nil, err
		}
		return AddInput{Input: Input{
			OutPoint: wire.OutPoint{
				Hash:  chainhash.Hash(hash),
				Index: index,
			},
			Value:    btcutil.Amount(value),
			PkScript: normalizeBytes(script),
			KeyPath:  path,
		}}, nil

	case TagRemoveInput:
		err := decodeStream(payload, []tlv.Type{
			typeOutPointHash, typeOutPointIndex,
		},
			tlv.MakePrimitiveRecord(typeOutPointHash, &hash),
			tlv.MakePrimitiveRecord(typeOutPointIndex, &index),
		)
		if err != nil {
			return nil, err
		}
		return RemoveInput{OutPoint: wire.OutPoint{
			Hash:  chainhash.Hash(hash),
			Index: index,
		}}, nil

	case TagAddOutput:
		err := decodeStream(payload, []tlv.Type{typeValue, typePkScript},
			tlv.MakePrimitiveRecord(typeValue, &value),
			tlv.MakePrimitiveRecord(typePkScript, &script),
		)
		if err != nil {
			return nil, err
		}
		return AddOutput{Output: Output{
			PkScript: normalizeBytes(script),
			Value:    btcutil.Amount(value),
		}}, nil

	case TagRemoveOutput:
		err := decodeStream(payload, []tlv.Type{typeOutputIndex},
			tlv.MakePrimitiveRecord(typeOutputIndex, &outIdx),
		)
		if err != nil {
			return nil, err
		}
		return RemoveOutput{Index: outIdx}, nil

	case TagAddChange:
		err := decodeStream(payload, []tlv.Type{
			typePkScript, typeAccount, typeBranch, typeKeyIndex,
		},
			tlv.MakePrimitiveRecord(typePkScript, &script),
			tlv.MakePrimitiveRecord(typeAccount, &path.Account),
			tlv.MakePrimitiveRecord(typeBranch, &path.Branch),
			tlv.MakePrimitiveRecord(typeKeyIndex, &path.Index),
		)
		if err != nil {
			return nil, err
		}
		return AddChange{Change: Change{
			PkScript: normalizeBytes(script),
			KeyPath:  path,
		}}, nil

	case TagRemoveChange:
		err := decodeStream(payload, []tlv.Type{typePkScript},
			tlv.MakePrimitiveRecord(typePkScript, &script),
		)
		if err != nil {
			return nil, err
		}
		return RemoveChange{PkScript: normalizeBytes(script)}, nil

	case TagFinalize:
		if len(payload) != 0 {
			return nil, fmt.Errorf("unexpected %d byte payload",
				len(payload))
		}
		return Finalize{}, nil

	case TagSignature:
		err := decodeStream(payload, []tlv.Type{typeWitness},
			witnessRecord(&witness),
		)
		if err != nil {
			return nil, err
		}
		return Signature{Witness: witness}, nil
	}

	return nil, ErrUnknownTag
}

// decodeStream decodes payload into records and makes sure every type in
// required was present.
func decodeStream(payload []byte, required []tlv.Type,
	records ...tlv.Record) error {

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return err
	}

	parsed, err := stream.DecodeWithParsedTypes(bytes.NewReader(payload))
	if err != nil {
		return err
	}

	for _, typ := range required {
		if _, ok := parsed[typ]; !ok {
			return fmt.Errorf("missing field %d", typ)
		}
	}
	return nil
}

// normalizeBytes maps empty decoded byte slices to nil so a nil script
// survives an encode/decode cycle unchanged.
func normalizeBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func witnessRecord(w *wire.TxWitness) tlv.Record {
	return tlv.MakeDynamicRecord(typeWitness, w, func() uint64 {
		return witnessSize(*w)
	}, witnessEncoder, witnessDecoder)
}

// witnessSize returns the number of bytes witnessEncoder writes for w.
func witnessSize(w wire.TxWitness) uint64 {
	size := tlv.VarIntSize(uint64(len(w)))
	for _, item := range w {
		size += tlv.VarIntSize(uint64(len(item))) + uint64(len(item))
	}
	return size
}

// witnessEncoder is a custom TLV encoder for a witness stack: the number of
// items followed by each item prefixed by its length.
func witnessEncoder(w io.Writer, val interface{}, buf *[8]byte) error {
	if v, ok := val.(*wire.TxWitness); ok {
		if err := tlv.WriteVarInt(w, uint64(len(*v)), buf); err != nil {
			return err
		}
		for _, item := range *v {
			err := tlv.WriteVarInt(w, uint64(len(item)), buf)
			if err != nil {
				return err
			}
			if _, err := w.Write(item); err != nil {
				return err
			}
		}
		return nil
	}

	return tlv.NewTypeForEncodingErr(val, "wire.TxWitness")
}

// witnessDecoder is a custom TLV decoder for a witness stack.
func witnessDecoder(r io.Reader, val interface{}, buf *[8]byte,
	l uint64) error {

	v, ok := val.(*wire.TxWitness)
	if !ok {
		return tlv.NewTypeForDecodingErr(val, "wire.TxWitness", l, l)
	}

	// Every read goes through a reader limited to the record length so a
	// corrupt item count or size can never consume bytes past the record.
	lr := &io.LimitedReader{R: r, N: int64(l)}

	count, err := tlv.ReadVarInt(lr, buf)
	if err != nil {
		return err
	}
	if count > l {
		return fmt.Errorf("witness item count %d exceeds record "+
			"length %d", count, l)
	}

	var witness wire.TxWitness
	for i := uint64(0); i < count; i++ {
		size, err := tlv.ReadVarInt(lr, buf)
		if err != nil {
			return err
		}
		if size > uint64(lr.N) {
			return io.ErrUnexpectedEOF
		}

		item := make([]byte, size)
		if _, err := io.ReadFull(lr, item); err != nil {
			return err
		}
		witness = append(witness, item)
	}

	if lr.N != 0 {
		return fmt.Errorf("%d unread witness bytes", lr.N)
	}

	*v = witness
	return nil
}
