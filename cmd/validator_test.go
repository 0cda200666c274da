package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPassword_PipedInput(t *testing.T) {
	var prompt bytes.Buffer
	c := &cobra.Command{}
	c.SetIn(strings.NewReader("  long-password \nignored\n"))
	c.SetErr(&prompt)

	got, err := readPassword(c)
	require.NoError(t, err)
	assert.Equal(t, "long-password", got)
	assert.Equal(t, "Password: ", prompt.String())
}

func TestReadPassword_PipeIsNotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	_, err = w.WriteString("from-a-pipe")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c := &cobra.Command{}
	c.SetIn(r)
	c.SetErr(&bytes.Buffer{})

	got, err := readPassword(c)
	require.NoError(t, err)
	assert.Equal(t, "from-a-pipe", got)
}

func TestReadPassword_EmptyInput(t *testing.T) {
	c := &cobra.Command{}
	c.SetIn(strings.NewReader(""))
	c.SetErr(&bytes.Buffer{})

	_, err := readPassword(c)
	assert.Error(t, err)
}
