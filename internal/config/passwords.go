package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoPassword is returned when the password book has no entry for a bank.
var ErrNoPassword = errors.New("no statement password configured")

// PasswordEntry holds the account holder details a bank derives its PDF
// password from.
type PasswordEntry struct {
	Name string `yaml:"name"`
	DOB  string `yaml:"dob"` // as the bank expects it, e.g. "0101"
}

// PasswordBook maps an upper-case bank key such as "ICICI" to its entry.
//
//	ICICI:
//	  name: Jane Doe
//	  dob: "0101"
type PasswordBook map[string]PasswordEntry

// LoadPasswordBook reads a password book from a YAML file.
func LoadPasswordBook(path string) (PasswordBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading password file: %w", err)
	}
	var raw PasswordBook
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing password file: %w", err)
	}

	book := make(PasswordBook, len(raw))
	for bank, entry := range raw {
		book[strings.ToUpper(strings.TrimSpace(bank))] = entry
	}
	return book, nil
}

// PasswordFor returns the statement password for bank: the first four
// letters of the holder's name, lower-cased, followed by the date of birth.
func (b PasswordBook) PasswordFor(bank string) (string, error) {
	entry, ok := b[strings.ToUpper(strings.TrimSpace(bank))]
	if !ok || entry.Name == "" {
		return "", fmt.Errorf("%w for bank %q", ErrNoPassword, bank)
	}

	name := []rune(strings.TrimSpace(entry.Name))
	if len(name) > 4 {
		name = name[:4]
	}
	return strings.ToLower(string(name)) + entry.DOB, nil
}
