package corpus

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex BLAKE3-256 digest of the corpus content.
// Every string is length-prefixed so distinct corpora cannot collide by
// concatenation.
func Fingerprint(c *Corpus) string {
	h := blake3.New()
	var buf [binary.MaxVarintLen64]byte

	putInt := func(v int) {
		n := binary.PutUvarint(buf[:], uint64(v))
		h.Write(buf[:n])
	}
	putString := func(s string) {
		putInt(len(s))
		h.Write([]byte(s))
	}

	putInt(len(c.books))
	for _, b := range c.books {
		putString(b.Name)
		putInt(len(b.Chapters))
		for _, ch := range b.Chapters {
			putInt(ch.Number)
			putInt(len(ch.Verses))
			for _, v := range ch.Verses {
				putInt(v.Number)
				putString(v.Text)
			}
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
