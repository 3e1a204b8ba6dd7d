package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleText_LastLineWithoutNewline(t *testing.T) {
	got, err := GetSimpleText(rdr("lastline"), "Name?", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)
}

func TestGetSimpleText_EOF(t *testing.T) {
	_, err := GetSimpleText(rdr(""), "Name?", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestGetOptionalText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetOptionalText(rdr("\n"), "Title", "Civic", &out)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, out.String(), "[Civic]")

	got, err = GetOptionalText(rdr("Accord\n"), "Title", "Civic", &out)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Accord", *got)
}

func TestGetList(t *testing.T) {
	got, err := GetList(rdr("a.png, ,b.png ,\n"), "Files", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got)

	got, err = GetList(rdr("\n"), "Files", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetPassword(t *testing.T) {
	stubPassword(t, "secret1")
	pw, err := GetPassword(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "secret1", string(pw))
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	_, err := GetPassword(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	wipe(b)
	assert.Equal(t, make([]byte, 6), b)
}
