package intersectsum

import (
	cryptorand "crypto/rand"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/stevebriskin/private-join-and-compute/core/ecc"
	"github.com/stevebriskin/private-join-and-compute/core/paillier"
	"github.com/stevebriskin/private-join-and-compute/core/pool"
	eccsuite "github.com/stevebriskin/private-join-and-compute/pkg/cryptosuite/sw/ecc"
	pailliersuite "github.com/stevebriskin/private-join-and-compute/pkg/cryptosuite/sw/paillier"
	"github.com/stevebriskin/private-join-and-compute/pkg/keyopts"
)

type clientStage uint8

const (
	clientStageInit clientStage = iota
	clientStageReEncrypted
	clientStageDone
	clientStageFailed
)

func (s clientStage) String() string {
	switch s {
	case clientStageInit:
		return "INIT"
	case clientStageReEncrypted:
		return "RE_ENCRYPTED"
	case clientStageDone:
		return "DONE"
	default:
		return "FAILED"
	}
}

// Client is the party holding identifiers with associated values. It
// receives the protocol output: the intersection size and the sum of the
// values whose identifiers both parties hold.
type Client struct {
	rand io.Reader
	pl   *pool.Pool

	sessionID   string
	identifiers [][]byte
	values      []*big.Int

	eccMgr  *eccsuite.ECCKeyManager
	pailMgr *pailliersuite.PaillierKeyManager

	eccOpts  keyopts.Options
	pailOpts keyopts.Options

	stage clientStage
}

// NewClient creates a client party for one protocol session, generating its
// cipher key and a Paillier key pair with a modulus of modulusBits bits.
// There must be exactly one non-negative value per identifier; pairing is
// positional. Passing a nil rand selects crypto/rand.
//
// Safe-prime generation dominates construction time and is parallelized
// over pl.
func NewClient(rand io.Reader, pl *pool.Pool, identifiers [][]byte, values []*big.Int, modulusBits int) (*Client, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	if err := validateClientInput(identifiers, values); err != nil {
		return nil, err
	}
	if modulusBits < paillier.MinModulusBits {
		return nil, newError(KindInvalidInput, "modulus size %d below minimum %d", modulusBits, paillier.MinModulusBits)
	}

	c, err := newClientParty(rand, pl, identifiers, values)
	if err != nil {
		return nil, err
	}
	if _, err := c.eccMgr.GenerateKey(c.eccOpts); err != nil {
		return nil, wrapError(KindCrypto, err, "client key generation")
	}
	if _, err := c.pailMgr.GenerateKey(modulusBits, c.pailOpts); err != nil {
		return nil, wrapError(KindCrypto, err, "client Paillier key generation")
	}
	return c, nil
}

func validateClientInput(identifiers [][]byte, values []*big.Int) error {
	if len(identifiers) != len(values) {
		return newError(KindInvalidInput, "%d identifiers but %d values", len(identifiers), len(values))
	}
	if err := validateIdentifiers(identifiers); err != nil {
		return err
	}
	for i, v := range values {
		if v == nil {
			return newError(KindInvalidInput, "value %d is nil", i)
		}
		if v.Sign() < 0 {
			return newError(KindInvalidInput, "value %d is negative", i)
		}
	}
	return nil
}

func newClientParty(rand io.Reader, pl *pool.Pool, identifiers [][]byte, values []*big.Int) (*Client, error) {
	c := &Client{
		rand:        rand,
		pl:          pl,
		sessionID:   uuid.NewString(),
		identifiers: identifiers,
		values:      values,
	}

	ks := newKeystore()
	c.eccMgr = eccsuite.NewECCKeyManager(ks, rand)
	c.pailMgr = pailliersuite.NewPaillierKeyManager(ks, pl, rand)

	eccOpts, err := sessionOpts(c.sessionID, roleClient)
	if err != nil {
		return nil, wrapError(KindInternal, err, "client options")
	}
	pailOpts, err := sessionOpts(c.sessionID, roleClient+"-paillier")
	if err != nil {
		return nil, wrapError(KindInternal, err, "client Paillier options")
	}
	c.eccOpts = eccOpts
	c.pailOpts = pailOpts
	return c, nil
}

func (c *Client) fail(err error) error {
	c.stage = clientStageFailed
	return err
}

// ReEncryptSet processes the server's first message and produces the
// client's reply: the server set re-encrypted under the client's cipher
// key, and the client's own set encrypted under the cipher key paired with
// Paillier encryptions of the associated values. Both sets are shuffled.
func (c *Client) ReEncryptSet(msg *ServerRoundOne) (*ClientRoundOne, error) {
	if c.stage != clientStageInit {
		return nil, c.fail(newError(KindProtocolOrder, "ReEncryptSet called in state %s", c.stage))
	}
	if msg == nil {
		return nil, c.fail(newError(KindMalformedMessage, "server round one is nil"))
	}
	if msg.Version != MessageVersion {
		return nil, c.fail(newError(KindMalformedMessage, "server round one: unsupported version %d", msg.Version))
	}

	reencrypted := make([][]byte, 0, len(msg.EncryptedSet))
	for _, raw := range msg.EncryptedSet {
		pt, err := ecc.PointFromBytes(raw)
		if err != nil {
			return nil, c.fail(wrapError(KindMalformedMessage, err, "encrypted server set"))
		}
		doubly, err := c.eccMgr.ReEncrypt(pt, c.eccOpts)
		if err != nil {
			return nil, c.fail(wrapError(KindInternal, err, "re-encrypting server set"))
		}
		reencrypted = append(reencrypted, doubly.Bytes())
	}
	shuffleByteSlices(reencrypted)

	key, err := c.pailMgr.GetKey(c.pailOpts)
	if err != nil {
		return nil, c.fail(wrapError(KindInternal, err, "retrieving Paillier key"))
	}

	encrypted := make([]EncryptedElement, 0, len(c.identifiers))
	for i, id := range c.identifiers {
		pt, err := c.eccMgr.Encrypt(id, c.eccOpts)
		if err != nil {
			return nil, c.fail(wrapError(KindCrypto, err, "encrypting client set"))
		}
		m := new(saferith.Nat).SetBytes(c.values[i].Bytes())
		ct, err := key.PublicKey().Enc(c.rand, m)
		if err != nil {
			return nil, c.fail(wrapError(KindInvalidInput, err, "encrypting associated value"))
		}
		encrypted = append(encrypted, EncryptedElement{
			Element: pt.Bytes(),
			Value:   ct.Bytes(),
		})
	}
	shuffleElements(encrypted)

	c.stage = clientStageReEncrypted
	return &ClientRoundOne{
		Version:         MessageVersion,
		ReencryptedSet:  reencrypted,
		EncryptedSet:    encrypted,
		PaillierModulus: key.PublicKey().Bytes(),
	}, nil
}

// DecryptSum processes the server's final message and returns the protocol
// output: the intersection size as declared by the server, and the
// decrypted sum of the matched values.
func (c *Client) DecryptSum(msg *ServerRoundTwo) (size uint64, sum *big.Int, err error) {
	if c.stage != clientStageReEncrypted {
		return 0, nil, c.fail(newError(KindProtocolOrder, "DecryptSum called in state %s", c.stage))
	}
	if msg == nil {
		return 0, nil, c.fail(newError(KindMalformedMessage, "server round two is nil"))
	}
	if msg.Version != MessageVersion {
		return 0, nil, c.fail(newError(KindMalformedMessage, "server round two: unsupported version %d", msg.Version))
	}

	ct := paillier.CiphertextFromBytes(msg.EncryptedSum)
	valid, err := c.pailMgr.ValidateCiphertexts(c.pailOpts, ct)
	if err != nil {
		return 0, nil, c.fail(wrapError(KindInternal, err, "validating encrypted sum"))
	}
	if !valid {
		return 0, nil, c.fail(newError(KindMalformedMessage, "encrypted sum out of range"))
	}

	m, err := c.pailMgr.Decrypt(ct, c.pailOpts)
	if err != nil {
		return 0, nil, c.fail(wrapError(KindInternal, err, "decrypting sum"))
	}

	c.stage = clientStageDone
	return msg.IntersectionSize, m.Big(), nil
}

type clientState struct {
	Version     uint8    `cbor:"version"`
	Stage       uint8    `cbor:"stage"`
	Identifiers [][]byte `cbor:"identifiers"`
	Values      [][]byte `cbor:"values"`
	ECKey       []byte   `cbor:"ec_key"`
	PaillierKey []byte   `cbor:"paillier_key"`
}

// Serialize exports the client's full session state, including both secret
// keys, as an opaque blob. A failed session cannot be exported.
func (c *Client) Serialize() ([]byte, error) {
	if c.stage == clientStageFailed {
		return nil, newError(KindProtocolOrder, "cannot serialize a failed session")
	}
	eccKey, err := c.eccMgr.GetKey(c.eccOpts)
	if err != nil {
		return nil, wrapError(KindInternal, err, "exporting client cipher key")
	}
	eccRaw, err := eccKey.Bytes()
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding client cipher key")
	}
	pailKey, err := c.pailMgr.GetKey(c.pailOpts)
	if err != nil {
		return nil, wrapError(KindInternal, err, "exporting client Paillier key")
	}
	pailRaw, err := pailKey.Bytes()
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding client Paillier key")
	}

	values := make([][]byte, len(c.values))
	for i, v := range c.values {
		values[i] = v.Bytes()
	}
	blob, err := cbor.Marshal(&clientState{
		Version:     MessageVersion,
		Stage:       uint8(c.stage),
		Identifiers: c.identifiers,
		Values:      values,
		ECKey:       eccRaw,
		PaillierKey: pailRaw,
	})
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding client state")
	}
	return blob, nil
}

// ClientFromState reconstructs a client party from a blob produced by
// Serialize. The session resumes exactly where it left off.
func ClientFromState(rand io.Reader, pl *pool.Pool, data []byte) (*Client, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	var state clientState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, wrapError(KindInvalidInput, err, "decoding client state")
	}
	if state.Version != MessageVersion {
		return nil, newError(KindInvalidInput, "client state: unsupported version %d", state.Version)
	}
	if state.Stage > uint8(clientStageDone) {
		return nil, newError(KindInvalidInput, "client state: invalid stage %d", state.Stage)
	}

	values := make([]*big.Int, len(state.Values))
	for i, v := range state.Values {
		values[i] = new(big.Int).SetBytes(v)
	}
	if err := validateClientInput(state.Identifiers, values); err != nil {
		return nil, err
	}

	c, err := newClientParty(rand, pl, state.Identifiers, values)
	if err != nil {
		return nil, err
	}
	c.stage = clientStage(state.Stage)
	if _, err := c.eccMgr.ImportKey(state.ECKey, c.eccOpts); err != nil {
		return nil, wrapError(KindInvalidInput, err, "importing client cipher key")
	}
	if _, err := c.pailMgr.ImportKey(state.PaillierKey, c.pailOpts); err != nil {
		return nil, wrapError(KindInvalidInput, err, "importing client Paillier key")
	}
	return c, nil
}
