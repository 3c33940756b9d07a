package intersectsum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrips(t *testing.T) {
	r1 := &ServerRoundOne{
		Version:      MessageVersion,
		EncryptedSet: [][]byte{{1, 2}, {3}},
	}
	b, err := r1.Marshal()
	require.NoError(t, err)
	gotR1, err := UnmarshalServerRoundOne(b)
	require.NoError(t, err)
	assert.Equal(t, r1, gotR1)

	c1 := &ClientRoundOne{
		Version:         MessageVersion,
		ReencryptedSet:  [][]byte{{4}},
		EncryptedSet:    []EncryptedElement{{Element: []byte{5}, Value: []byte{6}}},
		PaillierModulus: []byte{7, 8},
	}
	b, err = c1.Marshal()
	require.NoError(t, err)
	gotC1, err := UnmarshalClientRoundOne(b)
	require.NoError(t, err)
	assert.Equal(t, c1, gotC1)

	r2 := &ServerRoundTwo{
		Version:          MessageVersion,
		IntersectionSize: 42,
		EncryptedSum:     []byte{9},
	}
	b, err = r2.Marshal()
	require.NoError(t, err)
	gotR2, err := UnmarshalServerRoundTwo(b)
	require.NoError(t, err)
	assert.Equal(t, r2, gotR2)
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	b, err := (&ServerRoundOne{Version: 2}).Marshal()
	require.NoError(t, err)
	_, err = UnmarshalServerRoundOne(b)
	assert.Equal(t, KindMalformedMessage, KindOf(err))

	b, err = (&ClientRoundOne{Version: 0}).Marshal()
	require.NoError(t, err)
	_, err = UnmarshalClientRoundOne(b)
	assert.Equal(t, KindMalformedMessage, KindOf(err))

	b, err = (&ServerRoundTwo{Version: 7}).Marshal()
	require.NoError(t, err)
	_, err = UnmarshalServerRoundTwo(b)
	assert.Equal(t, KindMalformedMessage, KindOf(err))
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	for _, f := range []func([]byte) (interface{}, error){
		func(b []byte) (interface{}, error) { return UnmarshalServerRoundOne(b) },
		func(b []byte) (interface{}, error) { return UnmarshalClientRoundOne(b) },
		func(b []byte) (interface{}, error) { return UnmarshalServerRoundTwo(b) },
	} {
		_, err := f([]byte{0xFF, 0x00, 0x01})
		assert.Equal(t, KindMalformedMessage, KindOf(err))
	}
}
