package frame

import (
	"strconv"
	"strings"
)

const (
	telnetIAC byte = 0xFF
	telnetSE  byte = 0xF0
)

// Decode parses one complete reply from raw bytes already known to
// contain a terminator (the Client only calls Decode once the read
// loop has observed '>' or a bare '!').
func (f *Framer) Decode(raw []byte) Reply {
	reply := Reply{Raw: raw}

	// A reboot notification can appear anywhere in the stream, ahead of
	// any terminator, and pre-empts the rest of the grammar entirely.
	if indexByte(raw, '!') >= 0 {
		reply.Code = ControllerRebooted
		return reply
	}

	data := StripTelnetPrefix(raw)

	gtIdx := indexByte(data, '>')
	if gtIdx < 0 {
		reply.Code = Unparsable
		return reply
	}
	payload := trimReplyTerminatorPrefix(data[:gtIdx])

	if len(payload) == 0 {
		reply.Code = RebootAcknowledged
		return reply
	}

	if !hasPrefix(payload, "$S2CMD") {
		reply.Code = Unparsable
		return reply
	}
	crIdx := indexByte(payload, '\r')
	if crIdx < 0 {
		reply.Code = Unparsable
		return reply
	}
	cmd := payload[:crIdx]
	remainder := payload[crIdx+1:]

	if !verifyChecksum(cmd) {
		reply.Code = BadCmdChecksum
		return reply
	}

	reply.CommandID = f.parseCommandID(cmd)
	if cmdSentence, ok := parseSentenceBody(trimChecksumSuffix(cmd)[3:]); ok {
		reply.Sentences = append(reply.Sentences, cmdSentence)
	}

	repliesBlob, ok := trimRepliesTrailer(remainder)
	if !ok {
		// No well-formed reply block follows the echo; the echo alone
		// is still a valid interaction.
		reply.Code = Valid
		return reply
	}
	if len(repliesBlob) == 0 {
		reply.Code = Valid
		return reply
	}

	reply.Code = Valid
	// Reply sentences are separated by "\r\x00\n"; as in the trailers
	// handled above, the NUL is optional.
	blob := strings.ReplaceAll(string(repliesBlob), "\r\x00\n", "\r\n")
	for _, raw := range strings.Split(blob, "\r\n") {
		sentenceBytes := []byte(raw)
		if !verifyChecksum(sentenceBytes) {
			reply.Code = BadReplyChecksum
			return reply
		}
		body := trimChecksumSuffix(sentenceBytes)
		if !hasPrefix(body, "$S2") {
			reply.Code = Unparsable
			return reply
		}
		s, ok := parseSentenceBody(body[3:])
		if !ok {
			reply.Code = Unparsable
			return reply
		}
		reply.Sentences = append(reply.Sentences, s)
		if s.Tag == "ERR" {
			reply.Code = ErrInReply
		}
	}

	return reply
}

// StripTelnetPrefix removes a leading telnet subnegotiation block
// (0xFF ... 0xF0) if present.
func StripTelnetPrefix(raw []byte) []byte {
	if len(raw) == 0 || raw[0] != telnetIAC {
		return raw
	}
	if idx := lastIndexByte(raw, telnetSE); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}

// trimReplyTerminatorPrefix drops an optional trailing "\x00\n" or "\n"
// immediately preceding the '>' terminator.
func trimReplyTerminatorPrefix(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	if len(b) > 0 && b[len(b)-1] == 0x00 {
		b = b[:len(b)-1]
	}
	return b
}

// trimRepliesTrailer strips the optional leading "\x00\n"/"\n" separator
// after the command echo's terminating '\r', then the single trailing
// '\r' that must terminate the final reply sentence. ok is false when
// the remainder does not have that trailing '\r', meaning there is no
// well-formed reply block (only the command echo).
func trimRepliesTrailer(remainder []byte) (blob []byte, ok bool) {
	if len(remainder) == 0 {
		return nil, true
	}
	if remainder[0] == 0x00 && len(remainder) > 1 && remainder[1] == '\n' {
		remainder = remainder[2:]
	} else if remainder[0] == '\n' {
		remainder = remainder[1:]
	}
	idx := lastIndexByte(remainder, '\r')
	if idx < 0 {
		return nil, false
	}
	return remainder[:idx], true
}

// parseCommandID extracts the numeric sequence id from a command echo
// of the form "$S2CMD,<command>;<id>*<CHK>". When Framer.SequenceWrap is
// set, only the final digit of the id field is recovered.
func (f *Framer) parseCommandID(cmd []byte) int {
	semiIdx := indexByte(cmd, ';')
	if semiIdx < 0 {
		return 0
	}
	rest := cmd[semiIdx+1:]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	digits := rest[:end]
	if f.SequenceWrap {
		digits = digits[len(digits)-1:]
	}
	n, _ := strconv.Atoi(string(digits))
	return n
}

func trimChecksumSuffix(sentence []byte) []byte {
	idx := lastIndexByte(sentence, '*')
	if idx < 0 {
		return sentence
	}
	return sentence[:idx]
}

// parseSentenceBody parses a sentence body of the form "<TAG>,<fields>"
// (no leading "$S2" or trailing checksum; the command echo's body is
// everything after "$S2", i.e. "CMD,<command>;<id>").
func parseSentenceBody(body []byte) (Sentence, bool) {
	commaIdx := indexByte(body, ',')
	if commaIdx < 0 {
		return Sentence{}, false
	}
	tag := string(body[:commaIdx])
	if !isAlnum(tag) {
		return Sentence{}, false
	}
	fieldsStr := string(body[commaIdx+1:])
	return Sentence{Tag: tag, Fields: strings.Split(fieldsStr, ",")}, true
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func hasPrefix(b []byte, s string) bool {
	return len(b) >= len(s) && string(b[:len(s)]) == s
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}
