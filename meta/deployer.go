package meta

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// DeployerRecord is the decoded payload of a deployer bytecode item: the
// hashes binding the deployer together plus its authoring words.
type DeployerRecord struct {
	ConstructorMetaHash string          `msgpack:"constructorMetaHash"`
	BytecodeMetaHash    string          `msgpack:"bytecodeMetaHash"`
	Words               []AuthoringWord `msgpack:"words"`
}

// DecodeDeployerRecord unpacks a deployer bytecode item payload.
func DecodeDeployerRecord(payload []byte) (*DeployerRecord, error) {
	var rec DeployerRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &rec, nil
}
