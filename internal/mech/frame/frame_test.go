package frame

import (
	"fmt"
	"testing"
)

func TestEncodeNormalCommand(t *testing.T) {
	f := New(false)
	got := f.Encode("rp", 7)
	want := "rp;7\r"
	if string(got) != want {
		t.Errorf("Encode(rp, 7) = %q, want %q", got, want)
	}
}

func TestEncodeAck(t *testing.T) {
	f := New(false)
	got := f.Encode("!", 99)
	want := "!\r"
	if string(got) != want {
		t.Errorf("Encode(!, 99) = %q, want %q", got, want)
	}
}

func TestEncodeSequenceWrap(t *testing.T) {
	f := New(true)
	got := f.Encode("rp", 13)
	want := "rp;3\r"
	if string(got) != want {
		t.Errorf("Encode with wrap = %q, want %q", got, want)
	}
}

func TestChecksum(t *testing.T) {
	got := Checksum([]byte("S2CMD,rp;1"))
	if got != "0F" {
		t.Errorf("Checksum = %q, want 0F", got)
	}
}

// TestDecodeValidPneumaticsReply is scenario 1 from the testable
// properties: a single PNU reply following a command echo.
func TestDecodeValidPneumaticsReply(t *testing.T) {
	raw := []byte("$S2CMD,rp;1*0F\r\n$S2PNU,,o,,c,,o,,1*78\r\n>")

	f := New(false)
	reply := f.Decode(raw)

	if reply.Code != Valid {
		t.Fatalf("Code = %v, want Valid", reply.Code)
	}
	if reply.CommandID != 1 {
		t.Errorf("CommandID = %d, want 1", reply.CommandID)
	}
	pnu, ok := reply.Sentence("PNU")
	if !ok {
		t.Fatal("no PNU sentence found")
	}
	if pnu.Field(1) != "o" || pnu.Field(3) != "c" || pnu.Field(5) != "o" || pnu.Field(7) != "1" {
		t.Errorf("PNU fields = %v, want shutter=o left=c right=o pressure=1", pnu.Fields)
	}
}

// TestDecodeRebootThenAck is scenario 2.
func TestDecodeRebootThenAck(t *testing.T) {
	f := New(false)

	reboot := f.Decode([]byte("!"))
	if reboot.Code != ControllerRebooted {
		t.Fatalf("reboot Code = %v, want ControllerRebooted", reboot.Code)
	}

	ack := f.Decode([]byte(">"))
	if ack.Code != RebootAcknowledged {
		t.Fatalf("ack Code = %v, want RebootAcknowledged", ack.Code)
	}
}

// TestDecodeErrSentence is scenario 3.
func TestDecodeErrSentence(t *testing.T) {
	raw := []byte("$S2CMD,rp;1*0F\r\n$S2ERR,42,Bad arg*31\r\n>")

	f := New(false)
	reply := f.Decode(raw)

	if reply.Code != ErrInReply {
		t.Fatalf("Code = %v, want ErrInReply", reply.Code)
	}
	errS, ok := reply.Sentence("ERR")
	if !ok {
		t.Fatal("no ERR sentence found")
	}
	if errS.Field(0) != "42" || errS.Field(1) != "Bad arg" {
		t.Errorf("ERR fields = %v, want [42 Bad arg]", errS.Fields)
	}
}

func TestDecodeBadCommandChecksum(t *testing.T) {
	raw := []byte("$S2CMD,rp;1*FF\r\n>")
	f := New(false)
	reply := f.Decode(raw)
	if reply.Code != BadCmdChecksum {
		t.Errorf("Code = %v, want BadCmdChecksum", reply.Code)
	}
}

func TestDecodeBadReplyChecksum(t *testing.T) {
	raw := []byte("$S2CMD,rp;1*0F\r\n$S2PNU,,o,,c,,o,,1*FF\r\n>")
	f := New(false)
	reply := f.Decode(raw)
	if reply.Code != BadReplyChecksum {
		t.Errorf("Code = %v, want BadReplyChecksum", reply.Code)
	}
}

func TestDecodeUnparsable(t *testing.T) {
	f := New(false)
	reply := f.Decode([]byte("garbage no terminator"))
	if reply.Code != Unparsable {
		t.Errorf("Code = %v, want Unparsable", reply.Code)
	}
}

func TestDecodeLeniantChecksumCase(t *testing.T) {
	// Lowercase, unpadded checksum must still verify.
	raw := []byte("$S2CMD,rp;1*f\r\n>")
	f := New(false)
	reply := f.Decode(raw)
	if reply.Code != Valid {
		t.Errorf("Code = %v, want Valid (lenient checksum)", reply.Code)
	}
}

// TestFramerRoundTrip exercises the round-trip invariant from the
// testable properties: the sequence id parsed back out of a simulated
// echo equals the id used to frame the command.
func TestFramerRoundTrip(t *testing.T) {
	for _, wrap := range []bool{false, true} {
		f := New(wrap)
		for n := 1; n <= 23; n++ {
			encoded := f.Encode("rp", n)

			want := n
			if wrap {
				want = n % 10
			}

			wantEncoded := fmt.Sprintf("rp;%d\r", want)
			if string(encoded) != wantEncoded {
				t.Fatalf("n=%d wrap=%v: Encode = %q, want %q", n, wrap, encoded, wantEncoded)
			}

			body := fmt.Sprintf("S2CMD,rp;%d", want)
			echo := fmt.Sprintf("$%s*%s\r\n>", body, Checksum([]byte(body)))

			reply := f.Decode([]byte(echo))
			if reply.Code != Valid {
				t.Fatalf("n=%d wrap=%v: Code = %v, want Valid", n, wrap, reply.Code)
			}
			if reply.CommandID != want {
				t.Errorf("n=%d wrap=%v: CommandID = %d, want %d", n, wrap, reply.CommandID, want)
			}
		}
	}
}

func TestStripTelnetPrefix(t *testing.T) {
	body := "S2CMD,rp;1"
	chk := Checksum([]byte(body))
	raw := append([]byte{0xFF, 0xFB, 0x01, 0xF0}, []byte(fmt.Sprintf("$%s*%s\r\n>", body, chk))...)

	f := New(false)
	reply := f.Decode(raw)
	if reply.Code != Valid {
		t.Errorf("Code = %v, want Valid", reply.Code)
	}
}
