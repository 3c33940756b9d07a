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

type serverStage uint8

const (
	serverStageInit serverStage = iota
	serverStageSetSent
	serverStageDone
	serverStageFailed
)

func (s serverStage) String() string {
	switch s {
	case serverStageInit:
		return "INIT"
	case serverStageSetSent:
		return "SET_SENT"
	case serverStageDone:
		return "DONE"
	default:
		return "FAILED"
	}
}

// Server is the party holding identifiers only. It learns the size of the
// intersection and returns the encrypted sum to the client.
type Server struct {
	rand io.Reader
	pl   *pool.Pool

	sessionID   string
	identifiers [][]byte

	eccMgr  *eccsuite.ECCKeyManager
	pailMgr *pailliersuite.PaillierKeyManager

	// ownOpts addresses the server's cipher key; peerOpts addresses the
	// client's imported Paillier public key.
	ownOpts  keyopts.Options
	peerOpts keyopts.Options

	stage serverStage
}

// NewServer creates a server party for one protocol session, generating its
// cipher key. Passing a nil rand selects crypto/rand.
func NewServer(rand io.Reader, pl *pool.Pool, identifiers [][]byte) (*Server, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	if err := validateIdentifiers(identifiers); err != nil {
		return nil, err
	}

	s := &Server{
		rand:        rand,
		pl:          pl,
		sessionID:   uuid.NewString(),
		identifiers: identifiers,
	}
	if err := s.initKeyManagers(); err != nil {
		return nil, err
	}
	if _, err := s.eccMgr.GenerateKey(s.ownOpts); err != nil {
		return nil, wrapError(KindCrypto, err, "server key generation")
	}
	return s, nil
}

func (s *Server) initKeyManagers() error {
	ks := newKeystore()
	s.eccMgr = eccsuite.NewECCKeyManager(ks, s.rand)
	s.pailMgr = pailliersuite.NewPaillierKeyManager(ks, s.pl, s.rand)

	ownOpts, err := sessionOpts(s.sessionID, roleServer)
	if err != nil {
		return wrapError(KindInternal, err, "server options")
	}
	peerOpts, err := sessionOpts(s.sessionID, roleClient)
	if err != nil {
		return wrapError(KindInternal, err, "server peer options")
	}
	s.ownOpts = ownOpts
	s.peerOpts = peerOpts
	return nil
}

func (s *Server) fail(err error) error {
	s.stage = serverStageFailed
	return err
}

// EncryptSet produces the first protocol message: the server's identifiers
// encrypted under its cipher key, in shuffled order. It must be called
// exactly once, before ComputeIntersection.
func (s *Server) EncryptSet() (*ServerRoundOne, error) {
	if s.stage != serverStageInit {
		return nil, s.fail(newError(KindProtocolOrder, "EncryptSet called in state %s", s.stage))
	}

	encrypted := make([][]byte, 0, len(s.identifiers))
	for _, id := range s.identifiers {
		pt, err := s.eccMgr.Encrypt(id, s.ownOpts)
		if err != nil {
			return nil, s.fail(wrapError(KindCrypto, err, "encrypting server set"))
		}
		encrypted = append(encrypted, pt.Bytes())
	}
	shuffleByteSlices(encrypted)

	s.stage = serverStageSetSent
	return &ServerRoundOne{
		Version:      MessageVersion,
		EncryptedSet: encrypted,
	}, nil
}

// ComputeIntersection processes the client's message and produces the final
// one: the intersection size and the re-randomized encrypted sum of the
// matched values.
func (s *Server) ComputeIntersection(msg *ClientRoundOne) (*ServerRoundTwo, error) {
	if s.stage != serverStageSetSent {
		return nil, s.fail(newError(KindProtocolOrder, "ComputeIntersection called in state %s", s.stage))
	}
	if msg == nil {
		return nil, s.fail(newError(KindMalformedMessage, "client round one is nil"))
	}
	if msg.Version != MessageVersion {
		return nil, s.fail(newError(KindMalformedMessage, "client round one: unsupported version %d", msg.Version))
	}

	n := new(big.Int).SetBytes(msg.PaillierModulus)
	if n.BitLen() < 2 || n.Bit(0) == 0 {
		return nil, s.fail(newError(KindMalformedMessage, "invalid Paillier modulus"))
	}
	nMod := saferith.ModulusFromNat(new(saferith.Nat).SetBytes(msg.PaillierModulus))
	if _, err := s.pailMgr.ImportPublicKey(nMod, s.peerOpts); err != nil {
		return nil, s.fail(wrapError(KindInternal, err, "importing client Paillier key"))
	}

	// The doubly-encrypted server set, keyed on the canonical point
	// encoding. Commutativity makes these directly comparable with the
	// client elements re-encrypted below.
	lookup := make(map[string]struct{}, len(msg.ReencryptedSet))
	for _, raw := range msg.ReencryptedSet {
		pt, err := ecc.PointFromBytes(raw)
		if err != nil {
			return nil, s.fail(wrapError(KindMalformedMessage, err, "re-encrypted server set"))
		}
		lookup[string(pt.Bytes())] = struct{}{}
	}

	var sum *paillier.Ciphertext
	size := uint64(0)
	for i, el := range msg.EncryptedSet {
		pt, err := ecc.PointFromBytes(el.Element)
		if err != nil {
			return nil, s.fail(wrapError(KindMalformedMessage, err, "encrypted client set"))
		}
		ct := paillier.CiphertextFromBytes(el.Value)
		valid, err := s.pailMgr.ValidateCiphertexts(s.peerOpts, ct)
		if err != nil {
			return nil, s.fail(wrapError(KindInternal, err, "validating client ciphertext"))
		}
		if !valid {
			return nil, s.fail(newError(KindMalformedMessage, "client ciphertext %d out of range", i))
		}

		doubly, err := s.eccMgr.ReEncrypt(pt, s.ownOpts)
		if err != nil {
			return nil, s.fail(wrapError(KindInternal, err, "re-encrypting client set"))
		}
		if _, ok := lookup[string(doubly.Bytes())]; !ok {
			continue
		}
		size++
		if sum == nil {
			sum = ct
			continue
		}
		sum, err = s.pailMgr.Add(sum, ct, s.peerOpts)
		if err != nil {
			return nil, s.fail(wrapError(KindInternal, err, "summing matched values"))
		}
	}

	if sum == nil {
		var err error
		sum, err = s.pailMgr.Encrypt(new(saferith.Nat).SetUint64(0), s.peerOpts)
		if err != nil {
			return nil, s.fail(wrapError(KindCrypto, err, "encrypting empty sum"))
		}
	}
	// Blind the sum so the client cannot correlate it with any of its own
	// input ciphertexts.
	sum, err := s.pailMgr.Rerandomize(sum, s.peerOpts)
	if err != nil {
		return nil, s.fail(wrapError(KindCrypto, err, "re-randomizing sum"))
	}

	s.stage = serverStageDone
	return &ServerRoundTwo{
		Version:          MessageVersion,
		IntersectionSize: size,
		EncryptedSum:     sum.Bytes(),
	}, nil
}

type serverState struct {
	Version     uint8    `cbor:"version"`
	Stage       uint8    `cbor:"stage"`
	Identifiers [][]byte `cbor:"identifiers"`
	ECKey       []byte   `cbor:"ec_key"`
}

// Serialize exports the server's full session state, including its secret
// cipher key, as an opaque blob. A failed session cannot be exported.
func (s *Server) Serialize() ([]byte, error) {
	if s.stage == serverStageFailed {
		return nil, newError(KindProtocolOrder, "cannot serialize a failed session")
	}
	key, err := s.eccMgr.GetKey(s.ownOpts)
	if err != nil {
		return nil, wrapError(KindInternal, err, "exporting server key")
	}
	raw, err := key.Bytes()
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding server key")
	}
	blob, err := cbor.Marshal(&serverState{
		Version:     MessageVersion,
		Stage:       uint8(s.stage),
		Identifiers: s.identifiers,
		ECKey:       raw,
	})
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding server state")
	}
	return blob, nil
}

// ServerFromState reconstructs a server party from a blob produced by
// Serialize. The session resumes exactly where it left off.
func ServerFromState(rand io.Reader, pl *pool.Pool, data []byte) (*Server, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	var state serverState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, wrapError(KindInvalidInput, err, "decoding server state")
	}
	if state.Version != MessageVersion {
		return nil, newError(KindInvalidInput, "server state: unsupported version %d", state.Version)
	}
	if state.Stage > uint8(serverStageDone) {
		return nil, newError(KindInvalidInput, "server state: invalid stage %d", state.Stage)
	}
	if err := validateIdentifiers(state.Identifiers); err != nil {
		return nil, err
	}

	s := &Server{
		rand:        rand,
		pl:          pl,
		sessionID:   uuid.NewString(),
		identifiers: state.Identifiers,
		stage:       serverStage(state.Stage),
	}
	if err := s.initKeyManagers(); err != nil {
		return nil, err
	}
	if _, err := s.eccMgr.ImportKey(state.ECKey, s.ownOpts); err != nil {
		return nil, wrapError(KindInvalidInput, err, "importing server key")
	}
	return s, nil
}
