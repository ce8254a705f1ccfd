package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBook(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "password_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestPasswordFor(t *testing.T) {
	book, err := LoadPasswordBook(writeBook(t, `
icici:
  name: Jane Doe
  dob: "0101"
HDFC:
  name: Al
  dob: "1990"
`))
	require.NoError(t, err)

	tests := []struct {
		bank    string
		want    string
		wantErr bool
	}{
		{"ICICI", "jane0101", false},
		{"icici", "jane0101", false},
		{"hdfc", "al1990", false},
		{"sbi", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.bank, func(t *testing.T) {
			got, err := book.PasswordFor(tt.bank)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoPassword)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPasswordBook_Errors(t *testing.T) {
	_, err := LoadPasswordBook(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadPasswordBook(writeBook(t, "icici: [unterminated"))
	assert.Error(t, err)
}
