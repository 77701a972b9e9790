package uniuri

import (
	"crypto/rand"
)

// StdLen is the standard length, ~95 bits of entropy over StdChars.
const StdLen = 16

// StdChars is the standard alphanumeric alphabet.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

const byteRange = 256

// New returns a random string of StdLen standard characters.
func New() string {
	return NewLen(StdLen)
}

// NewLen returns a random string of length standard characters.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// NewLenChars returns a random string of length characters out of chars.
// It panics if chars holds fewer than 2 or more than 256 characters.
func NewLenChars(length int, chars []byte) string {
	if length <= 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("uniuri: wrong charset length for NewLenChars")
	}

	// bytes above maxRb would favour the first characters of chars
	maxRb := byteRange - (byteRange % clen) - 1

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			if int(rb) > maxRb {
				continue
			}

			out = append(out, chars[int(rb)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}
