package paillier

import (
	"encoding/hex"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"

	pailliercore "github.com/stevebriskin/private-join-and-compute/core/paillier"
	"github.com/stevebriskin/private-join-and-compute/core/pool"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keyopts"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keystore"
)

var ErrNoSecretKey = errors.New("paillier: operation requires the secret key")

// PaillierKeyManager generates, stores and applies Paillier keys. Key
// material lives in the keystore; every operation retrieves it by the
// session/role options.
type PaillierKeyManager struct {
	ks   keystore.Keystore
	pl   *pool.Pool
	rand io.Reader
}

func NewPaillierKeyManager(ks keystore.Keystore, pl *pool.Pool, rand io.Reader) *PaillierKeyManager {
	return &PaillierKeyManager{
		ks:   ks,
		pl:   pl,
		rand: rand,
	}
}

// GenerateKey creates a fresh key pair with a modulus of the given size and
// imports it into the keystore. Safe-prime generation may take a long time.
func (mgr *PaillierKeyManager) GenerateKey(bits int, opts keyopts.Options) (*PaillierKey, error) {
	sk, err := pailliercore.KeyGen(mgr.rand, mgr.pl, bits)
	if err != nil {
		return nil, err
	}
	key := NewPaillierKey(sk)
	return key, mgr.importKey(key, opts)
}

// ImportKey stores a key deserialized from raw bytes. Public-only
// encodings import as public keys.
func (mgr *PaillierKeyManager) ImportKey(data []byte, opts keyopts.Options) (*PaillierKey, error) {
	key, err := fromBytes(data)
	if err != nil {
		return nil, err
	}
	return key, mgr.importKey(key, opts)
}

// ImportPublicKey stores the public key with the given modulus.
func (mgr *PaillierKeyManager) ImportPublicKey(n *saferith.Modulus, opts keyopts.Options) (*PaillierKey, error) {
	key := NewPaillierPublicKey(pailliercore.NewPublicKey(n))
	return key, mgr.importKey(key, opts)
}

func (mgr *PaillierKeyManager) importKey(key *PaillierKey, opts keyopts.Options) error {
	raw, err := key.Bytes()
	if err != nil {
		return err
	}
	ski := hex.EncodeToString(key.SKI())
	return mgr.ks.Import(ski, raw, opts)
}

// GetKey retrieves the key stored under the given options.
func (mgr *PaillierKeyManager) GetKey(opts keyopts.Options) (*PaillierKey, error) {
	raw, err := mgr.ks.Get(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier: key not found")
	}
	return fromBytes(raw)
}

// DeleteKey removes the key stored under the given options.
func (mgr *PaillierKeyManager) DeleteKey(opts keyopts.Options) error {
	return mgr.ks.Delete(opts)
}

// Encrypt encrypts m under the stored key with a fresh nonce.
func (mgr *PaillierKeyManager) Encrypt(m *saferith.Nat, opts keyopts.Options) (*pailliercore.Ciphertext, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	return key.publicKey.Enc(mgr.rand, m)
}

// Decrypt decrypts ct under the stored key, which must be private.
func (mgr *PaillierKeyManager) Decrypt(ct *pailliercore.Ciphertext, opts keyopts.Options) (*saferith.Nat, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	if !key.Private() {
		return nil, ErrNoSecretKey
	}
	return key.secretKey.Dec(ct)
}

// Add returns the homomorphic sum of the two ciphertexts under the stored
// key.
func (mgr *PaillierKeyManager) Add(ct1, ct2 *pailliercore.Ciphertext, opts keyopts.Options) (*pailliercore.Ciphertext, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	return key.publicKey.Add(ct1, ct2), nil
}

// Rerandomize blinds ct with a fresh encryption of zero under the stored
// key.
func (mgr *PaillierKeyManager) Rerandomize(ct *pailliercore.Ciphertext, opts keyopts.Options) (*pailliercore.Ciphertext, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	return key.publicKey.Rerandomize(mgr.rand, ct), nil
}

// ValidateCiphertexts checks the given ciphertexts against the stored key.
func (mgr *PaillierKeyManager) ValidateCiphertexts(opts keyopts.Options, cts ...*pailliercore.Ciphertext) (bool, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return false, err
	}
	return key.publicKey.ValidateCiphertexts(cts...), nil
}
