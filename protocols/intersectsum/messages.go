package intersectsum

import (
	"github.com/fxamacker/cbor/v2"
)

// MessageVersion is the wire-format version stamped on every message.
const MessageVersion = 1

// ServerRoundOne opens the protocol: the server's identifiers, each hashed
// to the curve and encrypted under the server's key, in shuffled order.
type ServerRoundOne struct {
	Version      uint8    `cbor:"version"`
	EncryptedSet [][]byte `cbor:"encrypted_set"`
}

// EncryptedElement pairs a client identifier encrypted under the client's
// curve key with the Paillier encryption of its associated value.
type EncryptedElement struct {
	Element []byte `cbor:"element"`
	Value   []byte `cbor:"value"`
}

// ClientRoundOne carries the server set re-encrypted under the client's
// key, the client's own encrypted set, and the client's Paillier modulus.
// Both sets are in shuffled order.
type ClientRoundOne struct {
	Version         uint8              `cbor:"version"`
	ReencryptedSet  [][]byte           `cbor:"reencrypted_set"`
	EncryptedSet    []EncryptedElement `cbor:"encrypted_set"`
	PaillierModulus []byte             `cbor:"paillier_modulus"`
}

// ServerRoundTwo closes the protocol: the size of the intersection and the
// re-randomized Paillier encryption of the intersection-sum.
type ServerRoundTwo struct {
	Version          uint8  `cbor:"version"`
	IntersectionSize uint64 `cbor:"intersection_size"`
	EncryptedSum     []byte `cbor:"encrypted_sum"`
}

func (m *ServerRoundOne) Marshal() ([]byte, error) { return cbor.Marshal(m) }
func (m *ClientRoundOne) Marshal() ([]byte, error) { return cbor.Marshal(m) }
func (m *ServerRoundTwo) Marshal() ([]byte, error) { return cbor.Marshal(m) }

// UnmarshalServerRoundOne parses and version-checks a ServerRoundOne.
func UnmarshalServerRoundOne(data []byte) (*ServerRoundOne, error) {
	var m ServerRoundOne
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, wrapError(KindMalformedMessage, err, "server round one")
	}
	if m.Version != MessageVersion {
		return nil, newError(KindMalformedMessage, "server round one: unsupported version %d", m.Version)
	}
	return &m, nil
}

// UnmarshalClientRoundOne parses and version-checks a ClientRoundOne.
func UnmarshalClientRoundOne(data []byte) (*ClientRoundOne, error) {
	var m ClientRoundOne
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, wrapError(KindMalformedMessage, err, "client round one")
	}
	if m.Version != MessageVersion {
		return nil, newError(KindMalformedMessage, "client round one: unsupported version %d", m.Version)
	}
	return &m, nil
}

// UnmarshalServerRoundTwo parses and version-checks a ServerRoundTwo.
func UnmarshalServerRoundTwo(data []byte) (*ServerRoundTwo, error) {
	var m ServerRoundTwo
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, wrapError(KindMalformedMessage, err, "server round two")
	}
	if m.Version != MessageVersion {
		return nil, newError(KindMalformedMessage, "server round two: unsupported version %d", m.Version)
	}
	return &m, nil
}
