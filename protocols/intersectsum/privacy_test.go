package intersectsum

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverWithSameKey builds a second server sharing the first one's cipher
// key but holding the identifiers in a different order.
func serverWithSameKey(t *testing.T, s *Server, identifiers [][]byte) *Server {
	t.Helper()
	blob, err := s.Serialize()
	require.NoError(t, err)

	var state serverState
	require.NoError(t, cbor.Unmarshal(blob, &state))
	state.Identifiers = identifiers
	blob, err = cbor.Marshal(&state)
	require.NoError(t, err)

	restored, err := ServerFromState(rand.Reader, nil, blob)
	require.NoError(t, err)
	return restored
}

func clientWithSameKeys(t *testing.T, c *Client, identifiers [][]byte, values [][]byte) *Client {
	t.Helper()
	blob, err := c.Serialize()
	require.NoError(t, err)

	var state clientState
	require.NoError(t, cbor.Unmarshal(blob, &state))
	state.Identifiers = identifiers
	state.Values = values
	blob, err = cbor.Marshal(&state)
	require.NoError(t, err)

	restored, err := ClientFromState(rand.Reader, nil, blob)
	require.NoError(t, err)
	return restored
}

// The wire message must be the same set of points regardless of the input
// order: position must carry no information.
func TestServerRoundOneIsOrderFree(t *testing.T) {
	s1, err := NewServer(rand.Reader, nil, byteIDs("a", "b", "c", "d"))
	require.NoError(t, err)
	s2 := serverWithSameKey(t, s1, byteIDs("d", "c", "b", "a"))

	m1, err := s1.EncryptSet()
	require.NoError(t, err)
	m2, err := s2.EncryptSet()
	require.NoError(t, err)

	assert.Equal(t, sortedBytes(m1.EncryptedSet), sortedBytes(m2.EncryptedSet))
}

func TestClientRoundOneIsOrderFree(t *testing.T) {
	server, err := NewServer(rand.Reader, nil, byteIDs("x", "y"))
	require.NoError(t, err)
	r1, err := server.EncryptSet()
	require.NoError(t, err)

	c1 := newTestClient(t, byteIDs("a", "b", "c"), bigs(1, 2, 3))
	c2 := clientWithSameKeys(t, c1,
		byteIDs("c", "a", "b"),
		[][]byte{{3}, {1}, {2}},
	)

	m1, err := c1.ReEncryptSet(r1)
	require.NoError(t, err)
	// Feed the second client an equivalent but permuted server message.
	r1Permuted := &ServerRoundOne{
		Version:      MessageVersion,
		EncryptedSet: [][]byte{r1.EncryptedSet[1], r1.EncryptedSet[0]},
	}
	m2, err := c2.ReEncryptSet(r1Permuted)
	require.NoError(t, err)

	assert.Equal(t, sortedBytes(m1.ReencryptedSet), sortedBytes(m2.ReencryptedSet))

	// Identifier points are deterministic under a fixed key, so they must
	// agree as sets. Paillier ciphertexts use fresh nonces and differ by
	// design.
	points1 := make([][]byte, len(m1.EncryptedSet))
	points2 := make([][]byte, len(m2.EncryptedSet))
	for i := range m1.EncryptedSet {
		points1[i] = m1.EncryptedSet[i].Element
		points2[i] = m2.EncryptedSet[i].Element
	}
	assert.Equal(t, sortedBytes(points1), sortedBytes(points2))
}

// Two servers with the same key answering the same client message must
// return different encrypted sums (re-randomization) that decrypt equally.
func TestEncryptedSumIsRerandomized(t *testing.T) {
	s1, err := NewServer(rand.Reader, nil, byteIDs("a", "b", "c"))
	require.NoError(t, err)
	s2 := serverWithSameKey(t, s1, byteIDs("a", "b", "c"))

	client := newTestClient(t, byteIDs("b", "c", "d"), bigs(10, 20, 30))

	r1, err := s1.EncryptSet()
	require.NoError(t, err)
	c1, err := client.ReEncryptSet(r1)
	require.NoError(t, err)

	// s2 was copied before round one, so it runs EncryptSet too; with the
	// same key and identifiers it must produce the set s1 already sent.
	r1Again, err := s2.EncryptSet()
	require.NoError(t, err)
	require.Equal(t, sortedBytes(r1.EncryptedSet), sortedBytes(r1Again.EncryptedSet))

	r2a, err := s1.ComputeIntersection(c1)
	require.NoError(t, err)
	r2b, err := s2.ComputeIntersection(c1)
	require.NoError(t, err)

	assert.Equal(t, r2a.IntersectionSize, r2b.IntersectionSize)
	assert.NotEqual(t, r2a.EncryptedSum, r2b.EncryptedSum)

	// Decrypt the second sum with a copy of the client captured before
	// DecryptSum consumes the session.
	blob, err := client.Serialize()
	require.NoError(t, err)
	clientCopy, err := ClientFromState(rand.Reader, nil, blob)
	require.NoError(t, err)

	size, sum, err := client.DecryptSum(r2a)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), size)
	assert.Equal(t, int64(30), sum.Int64())

	sizeB, sumB, err := clientCopy.DecryptSum(r2b)
	require.NoError(t, err)
	assert.Equal(t, size, sizeB)
	assert.Equal(t, sum, sumB)
}
