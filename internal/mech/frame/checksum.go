package frame

import (
	"strconv"
	"strings"
)

// checksum returns the two-digit uppercase hex XOR checksum of body.
func checksum(body []byte) string {
	var c byte
	for _, b := range body {
		c ^= b
	}
	return strings.ToUpper(padHex(c))
}

func padHex(b byte) string {
	s := strconv.FormatUint(uint64(b), 16)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

// verifyChecksum checks a "<body>*<CHK>" sentence, where body may still
// carry a leading '$'. Verification is lenient: the checksum field may
// be any case and need not be zero-padded, matching the source's
// permissive parsing of controller output.
func verifyChecksum(sentence []byte) bool {
	idx := strings.LastIndexByte(string(sentence), '*')
	if idx < 0 {
		return false
	}
	body, chkField := sentence[:idx], sentence[idx+1:]
	if len(chkField) == 0 {
		return false
	}
	want, err := strconv.ParseUint(string(chkField), 16, 8)
	if err != nil {
		return false
	}

	body = bytesTrimLeadingDollar(body)

	var got byte
	for _, b := range body {
		got ^= b
	}
	return uint64(got) == want
}

func bytesTrimLeadingDollar(b []byte) []byte {
	if len(b) > 0 && b[0] == '$' {
		return b[1:]
	}
	return b
}

// Checksum is the exported form of checksum, used by callers (and
// tests) that need to compute the checksum of a sentence body on its
// own, without the surrounding "$...*" framing.
func Checksum(body []byte) string {
	return checksum(bytesTrimLeadingDollar(body))
}
