package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio reads from stdin and writes to stdout
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	// fd терминала для скрытого ввода, -1 если ввод не из терминала
	fd int
}

// NewStdio binds IO to the process streams
func NewStdio() IO {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Stdio{in: bufio.NewReader(os.Stdin), out: os.Stdout, fd: fd}
}

// NewStreams binds IO to arbitrary streams; passwords are read as plain lines
func NewStreams(in io.Reader, out io.Writer) IO {
	return &Stdio{in: bufio.NewReader(in), out: out, fd: -1}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadPassword hides input on a terminal and falls back to ReadInput
// for pipes
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if s.fd < 0 {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pwBytes)), nil
}
