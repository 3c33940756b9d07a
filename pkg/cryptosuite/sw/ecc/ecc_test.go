package ecc

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebriskin/private-join-and-compute/pkg/keyopts"
	"github.com/stevebriskin/private-join-and-compute/pkg/keystore"
	"github.com/stevebriskin/private-join-and-compute/pkg/vault"
)

func testManager() *ECCKeyManager {
	ks := keystore.NewInMemoryKeystore(vault.NewInMemoryVault(), keyopts.NewInMemoryKeyOpts())
	return NewECCKeyManager(ks, rand.Reader)
}

func testOpts(t *testing.T) keyopts.Options {
	opts := keyopts.NewOptions()
	require.NoError(t, opts.Set("id", "session-1", "role", "server"))
	return opts
}

func TestGenerateAndGetKey(t *testing.T) {
	mgr := testManager()
	opts := testOpts(t)

	key, err := mgr.GenerateKey(opts)
	require.NoError(t, err)

	got, err := mgr.GetKey(opts)
	require.NoError(t, err)
	assert.Equal(t, key.SKI(), got.SKI())
}

func TestImportKeyRoundTrip(t *testing.T) {
	mgr := testManager()
	opts := testOpts(t)

	key, err := mgr.GenerateKey(opts)
	require.NoError(t, err)
	raw, err := key.Bytes()
	require.NoError(t, err)

	other := testManager()
	imported, err := other.ImportKey(raw, opts)
	require.NoError(t, err)
	assert.Equal(t, key.SKI(), imported.SKI())

	a, err := mgr.Encrypt([]byte("msg"), opts)
	require.NoError(t, err)
	b, err := other.Encrypt([]byte("msg"), opts)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestEncryptReEncryptCommute(t *testing.T) {
	mgrA := testManager()
	mgrB := testManager()
	opts := testOpts(t)

	_, err := mgrA.GenerateKey(opts)
	require.NoError(t, err)
	_, err = mgrB.GenerateKey(opts)
	require.NoError(t, err)

	ea, err := mgrA.Encrypt([]byte("id"), opts)
	require.NoError(t, err)
	eb, err := mgrB.Encrypt([]byte("id"), opts)
	require.NoError(t, err)

	eab, err := mgrB.ReEncrypt(ea, opts)
	require.NoError(t, err)
	eba, err := mgrA.ReEncrypt(eb, opts)
	require.NoError(t, err)
	assert.Equal(t, eab.Bytes(), eba.Bytes())
}

func TestGetKeyMissing(t *testing.T) {
	mgr := testManager()
	_, err := mgr.GetKey(testOpts(t))
	assert.Error(t, err)
}
