package meta

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// AuthoringWord is one opcode word published by a deployer.
type AuthoringWord struct {
	Word        string `msgpack:"word"`
	Description string `msgpack:"description"`
}

// AuthoringMeta is the set of words a deployer's interpreter understands.
type AuthoringMeta struct {
	Words []AuthoringWord `msgpack:"words"`
}

// DecodeAuthoringMeta unpacks an authoring meta item payload.
func DecodeAuthoringMeta(payload []byte) (*AuthoringMeta, error) {
	var am AuthoringMeta
	if err := msgpack.Unmarshal(payload, &am); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &am, nil
}

// Lookup returns the word entry for name, if the meta defines it.
func (am *AuthoringMeta) Lookup(name string) (AuthoringWord, bool) {
	for _, w := range am.Words {
		if w.Word == name {
			return w, true
		}
	}
	return AuthoringWord{}, false
}
