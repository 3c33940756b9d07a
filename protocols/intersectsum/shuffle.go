package intersectsum

import (
	"lukechampine.com/frand"
)

// Every set-valued wire field is shuffled before transmission so that no
// position carries information about the sender's input order.

func shuffleByteSlices(s [][]byte) {
	frand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func shuffleElements(s []EncryptedElement) {
	frand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
