package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/litmerge/internal/config"
	"golang.org/x/term"
)

// prompter asks for missing values on the terminal. Questions go to out so
// stdout stays reserved for command output.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() (string, error)
}

func newTerminalPrompter() *prompter {
	p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(b), err
		}
	}
	return p
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// line prints label and reads one trimmed line. EOF counts as an empty answer.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// hidden reads a value without echo when possible.
func (p *prompter) hidden(label string) (string, error) {
	if p.secret == nil {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	s, err := p.secret()
	return strings.TrimSpace(s), err
}

// fillCredentials prompts for the library ID and API key when the
// environment did not provide them, then validates the result.
func (p *prompter) fillCredentials(c *config.Credentials) error {
	if c.LibraryID == "" {
		fmt.Fprintln(p.out, "Find your library ID at https://www.zotero.org/settings/keys (\"Your userID for use in API calls\").")
		id, err := p.line("Zotero library ID: ")
		if err != nil {
			return err
		}
		c.LibraryID = id
	}
	if err := config.ValidateLibraryID(c.LibraryID); err != nil {
		return err
	}

	if c.APIKey == "" {
		key, err := p.hidden("Zotero API key (input hidden): ")
		if err != nil {
			return err
		}
		c.APIKey = key
	}
	return c.Validate()
}

// collectionName asks for the target collection; blank keeps def.
func (p *prompter) collectionName(def string) (string, error) {
	name, err := p.line(fmt.Sprintf("Collection name (blank for %q): ", def))
	if err != nil {
		return "", err
	}
	if name == "" {
		return def, nil
	}
	return name, nil
}
