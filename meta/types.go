// Package meta decodes, stores and fetches content-addressed rain meta
// payloads.
package meta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrBadMagic is returned for payloads that do not start with the
	// rain meta document magic.
	ErrBadMagic = errors.New("payload is not a rain meta document")

	// ErrCorrupt is returned for payloads whose item sequence cannot be
	// decoded.
	ErrCorrupt = errors.New("corrupt meta payload")
)

// DocumentItem is one item of a meta document sequence.
type DocumentItem struct {
	Payload     []byte     `msgpack:"payload"`
	Magic       KnownMagic `msgpack:"magic"`
	ContentType string     `msgpack:"contentType"`
}

// Decode splits a meta payload into its item sequence. The payload must
// start with the 8-byte document magic.
func Decode(data []byte) ([]DocumentItem, error) {
	if len(data) < 8 {
		return nil, ErrBadMagic
	}
	if KnownMagic(binary.BigEndian.Uint64(data[:8])) != RainMetaDocumentV1 {
		return nil, ErrBadMagic
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data[8:]))
	var items []DocumentItem
	for {
		var item DocumentItem
		if err := dec.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, ErrCorrupt
	}
	return items, nil
}

// Encode serializes an item sequence back into a meta payload.
func Encode(items []DocumentItem) ([]byte, error) {
	var buf bytes.Buffer
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, uint64(RainMetaDocumentV1))
	buf.Write(prefix)

	enc := msgpack.NewEncoder(&buf)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// IsConsumable reports whether an item sequence can back an import: at
// most one each of dotrain, caller meta and deployer bytecode items, and
// at least one of them overall.
func IsConsumable(items []DocumentItem) bool {
	var dotrains, callers, deployers int
	for _, item := range items {
		switch item.Magic {
		case DotrainV1:
			dotrains++
		case InterpreterCallerMetaV1:
			callers++
		case ExpressionDeployerV2BytecodeV1:
			deployers++
		}
	}
	if dotrains > 1 || callers > 1 || deployers > 1 {
		return false
	}
	return dotrains+callers+deployers > 0
}
