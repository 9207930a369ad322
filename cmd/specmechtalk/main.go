// Command specmechtalk is an interactive REPL for exercising a
// running specMech. By default it drives the local terminal in raw
// mode; with -listen it instead serves the same REPL over SSH so a
// remote operator can attach without a local login.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/anmitsu/go-shlex"
	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/client"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
	"github.com/stlalpha/specmech/internal/mech/errs"
	"github.com/stlalpha/specmech/internal/mech/status"
	"github.com/stlalpha/specmech/internal/termsafe"
)

func main() {
	configPath := flag.String("config", "specmech.json", "path to specMech config file")
	listen := flag.String("listen", "", "if set, serve the REPL over SSH on this address instead of the local terminal")
	hostKeyPath := flag.String("host-key", "", "SSH host key path (required with -listen)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	c := client.New(cfg.SpecMech.Address, cfg.SpecMech.Port, cfg.SpecMech.SequenceWrap)
	if err := c.Start(); err != nil {
		log.Fatalf("connecting to specMech: %v", err)
	}
	defer c.Close()

	coord := coordinate.New(c, cfg)

	if *listen != "" {
		if *hostKeyPath == "" {
			log.Fatal("-host-key is required with -listen")
		}
		runSSHServer(*listen, *hostKeyPath, coord)
		return
	}

	runLocal(coord)
}

func runLocal(coord *coordinate.Coordinator) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			log.Fatalf("entering raw mode: %v", err)
		}
		defer term.Restore(fd, old)
	}

	out := termsafe.NewSelectiveWriter(os.Stdout)
	sess := newSession(coord, os.Stdin, out)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess.run(ctx)
}

func runSSHServer(addr, hostKeyPath string, coord *coordinate.Coordinator) {
	keyBytes, err := os.ReadFile(hostKeyPath)
	if err != nil {
		log.Fatalf("read host key %s: %v", hostKeyPath, err)
	}
	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		log.Fatalf("parse host key: %v", err)
	}

	srv := &ssh.Server{
		Addr:        addr,
		HostSigners: []ssh.Signer{signer},
		Version:     "specmechtalk",
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			// Operators reach this host over an already-trusted
			// network; authentication is handled at that layer.
			return true
		},
		Handler: func(s ssh.Session) {
			_, winCh, isPty := s.Pty()
			if !isPty {
				fmt.Fprintln(s, "specmechtalk requires a PTY")
				s.Exit(1)
				return
			}

			out := termsafe.NewSelectiveWriter(s)
			sess := newSession(coord, s, out)
			go func() {
				for range winCh {
					// window size changes don't affect a line-oriented REPL
				}
			}()
			sess.run(s.Context())
		},
	}

	log.Printf("specmechtalk SSH REPL listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("ssh server: %v", err)
	}
}

// session runs the REPL loop for one connected terminal (local or
// over SSH): read a line, shell-tokenize it, dispatch to the
// coordinator, print the result.
type session struct {
	coord *coordinate.Coordinator
	in    *bufio.Reader
	out   io.Writer
}

func newSession(coord *coordinate.Coordinator, in io.Reader, out io.Writer) *session {
	return &session{coord: coord, in: bufio.NewReader(in), out: out}
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) run(ctx context.Context) {
	s.printf("specmechtalk -- type 'help' for commands, 'quit' to exit\r\n")
	for {
		s.printf("specmech> ")
		line, err := s.readLine()
		if err != nil {
			return
		}
		fields, err := shlex.Split(line, true)
		if err != nil {
			s.printf("parse error: %v\r\n", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		s.dispatch(ctx, fields)
	}
}

// readLine accumulates bytes until the first '\r' or '\n', with simple
// backspace editing (raw mode delivers both locally). The second byte
// of a "\r\n" pair yields an empty line, which run skips.
func (s *session) readLine() (string, error) {
	var b []byte
	for {
		c, err := s.in.ReadByte()
		if err != nil {
			return "", err
		}
		switch c {
		case '\r', '\n':
			s.printf("\r\n")
			return string(b), nil
		case 0x7f, 0x08: // backspace / DEL
			if len(b) > 0 {
				b = b[:len(b)-1]
				s.printf("\b \b")
			}
		case 0x03: // Ctrl-C
			return "", io.EOF
		default:
			b = append(b, c)
			s.printf("%c", c)
		}
	}
}

func (s *session) dispatch(ctx context.Context, fields []string) {
	cmd, args := fields[0], fields[1:]
	var err error

	switch cmd {
	case "help":
		s.printf(helpText)
	case "talk":
		if len(args) == 0 {
			s.printf("usage: talk <raw command>\r\n")
			return
		}
		reply, e := s.coord.Talk(ctx, strings.Join(args, ""))
		if e != nil {
			err = e
		} else {
			s.printf("%s\r\n", reply.Raw)
		}
	case "status":
		kind := status.SpecMech
		if len(args) > 0 {
			kind = status.Kind(args[0])
		}
		v, e := s.coord.GetStat(ctx, kind)
		if e != nil {
			err = e
		} else {
			s.printf("%+v\r\n", v)
		}
	case "open", "close":
		if len(args) != 1 {
			s.printf("usage: %s <shutter|left|right>\r\n", cmd)
			return
		}
		state, e := s.coord.PneumaticMove(ctx, mech.Mechanism(args[0]), cmd == "open")
		if e != nil {
			err = e
		} else {
			s.printf("%s -> %s\r\n", args[0], state)
		}
	case "move":
		req, e := parseMoveArgs(args)
		if e != nil {
			s.printf("%v\r\n", e)
			return
		}
		res, e := s.coord.CollimatorMove(ctx, req)
		if e != nil {
			err = e
		} else {
			s.printf("positions=%v move_time=%s\r\n", res.Positions, res.MoveTime)
		}
	case "fan":
		if len(args) != 1 {
			s.printf("usage: fan <on|off>\r\n")
			return
		}
		err = s.coord.Fan(ctx, args[0] == "on")
	case "reboot":
		err = s.coord.Reboot(ctx)
	case "ack":
		err = s.coord.Ack(ctx)
	case "reconnect":
		err = s.coord.Reconnect()
	default:
		s.printf("unknown command %q, try 'help'\r\n", cmd)
		return
	}

	if err != nil {
		s.printf("error: %v\r\n", err)
	}
}

const helpText = "" +
	"  talk <raw>            send a raw command string\r\n" +
	"  status [kind]          fetch a status sentence (default: specmech)\r\n" +
	"  open|close <mech>      shutter, left, or right\r\n" +
	"  move [motor] [-a] <n>  collimator move, e.g. 'move a -a 1200' or 'move 50'\r\n" +
	"  fan <on|off>\r\n" +
	"  reboot / ack / reconnect\r\n" +
	"  quit\r\n"

func parseMoveArgs(args []string) (coordinate.MoveRequest, error) {
	req := coordinate.MoveRequest{Tolerance: 2}
	if len(args) == 0 {
		return req, errs.New(errs.KindConfig, "usage: move [motor] [-a] <delta|position>")
	}

	i := 0
	if axis := mech.Axis(strings.ToLower(args[0])); axis.Valid() {
		req.HasMotor = true
		req.Motor = axis
		i++
	}

	for i < len(args) {
		switch args[i] {
		case "-a", "-abs", "-absolute":
			req.Absolute = true
		case "-c", "-center":
			req.Center = true
		default:
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return req, errs.New(errs.KindConfig, "invalid position %q", args[i])
			}
			req.Position = n
		}
		i++
	}
	return req, nil
}
