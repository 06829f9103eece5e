package cli

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"golang.org/x/term"
)

var (
	ErrEmptyInput        = errors.New("input must not be empty")
	ErrPasswordsMismatch = errors.New("passwords do not match")
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText writes "prompt: " to w and reads one line from reader with
// surrounding blanks removed. A final line without a newline is accepted;
// a blank answer yields ErrEmptyInput.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", prompt); err != nil {
		return "", err
	}

	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyInput
	}
	return line, nil
}

// GetPassword writes prompt to w and reads a password from the terminal
// without echo. The caller wipes the result with common.WipeByteArray.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, ErrEmptyInput
	}
	return pw, nil
}

// GetNewPassword asks for a password twice and returns it only when both
// entries match.
func GetNewPassword(w io.Writer) ([]byte, error) {
	pw, err := GetPassword(w, "Choose password")
	if err != nil {
		return nil, err
	}

	again, err := GetPassword(w, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if subtle.ConstantTimeCompare(pw, again) != 1 {
		common.WipeByteArray(pw)
		return nil, ErrPasswordsMismatch
	}
	return pw, nil
}
