// Package intersectsum implements the two-party private intersection-sum
// protocol.
//
// The server holds a set of identifiers; the client holds identifiers with
// associated non-negative integer values. After a three-message exchange
// the client learns the size of the intersection and the sum of the values
// whose identifiers both parties hold, and the server learns the
// intersection size. Neither party learns which identifiers intersect.
//
// Identifiers are hidden with a commutative cipher over secp256k1 (package
// core/ecc): each party encrypts under its own secret scalar, and points
// encrypted under both scalars are equal regardless of order, making
// doubly-encrypted sets comparable without revealing their elements. Values
// are hidden with the client's Paillier key (package core/paillier), which
// the server uses to sum matched values without seeing them.
//
// The exchange is strictly ordered:
//
//	Server.EncryptSet          -> ServerRoundOne
//	Client.ReEncryptSet        -> ClientRoundOne
//	Server.ComputeIntersection -> ServerRoundTwo
//	Client.DecryptSum          -> (size, sum)
//
// The package produces and consumes wire messages only; transport is the
// caller's concern. Both parties are semi-honest: the protocol protects
// privacy against parties that follow it while trying to learn more.
//
// Within one party's input, identifiers are expected to be unique. Inputs
// with duplicates are not rejected, but the reported intersection size and
// sum are unspecified.
package intersectsum

import (
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keystore"
	"github.com/stevebriskin/private-join-and-compute/pkg/keyopts"
	inmemkeystore "github.com/stevebriskin/private-join-and-compute/pkg/keystore"
	"github.com/stevebriskin/private-join-and-compute/pkg/vault"
)

// Role names of the two parties, used to address keys in the keystore.
const (
	roleServer = "server"
	roleClient = "client"
)

func newKeystore() keystore.Keystore {
	return inmemkeystore.NewInMemoryKeystore(vault.NewInMemoryVault(), keyopts.NewInMemoryKeyOpts())
}

func sessionOpts(sessionID, role string) (keyopts.Options, error) {
	opts := keyopts.NewOptions()
	if err := opts.Set("id", sessionID, "role", role); err != nil {
		return nil, err
	}
	return opts, nil
}

func validateIdentifiers(ids [][]byte) error {
	for i, id := range ids {
		if len(id) == 0 {
			return newError(KindInvalidInput, "identifier %d is empty", i)
		}
	}
	return nil
}
