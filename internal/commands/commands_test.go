package commands

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteParsesFlags(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	frames := fs.Int("frames", 10, "")
	var got int
	r.Register("run", "run headless", fs, func() error { got = *frames; return nil })

	require.NoError(t, r.Execute([]string{"run", "-frames", "42"}))
	assert.Equal(t, 42, got)
}

func TestExecuteErrors(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	boom := errors.New("boom")
	r.Register("view", "open window", fs, func() error { return boom })

	assert.EqualError(t, r.Execute(nil), "missing subcommand")
	assert.EqualError(t, r.Execute([]string{"fly"}), "unknown command: fly")
	assert.Error(t, r.Execute([]string{"view", "-nope"}))
	assert.ErrorIs(t, r.Execute([]string{"view"}), boom)
}

func TestUsageSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("view", "open window", flag.NewFlagSet("view", flag.ContinueOnError), func() error { return nil })
	r.Register("params", "print params", flag.NewFlagSet("params", flag.ContinueOnError), func() error { return nil })
	assert.Equal(t, []string{"params", "view"}, r.Names())

	var buf bytes.Buffer
	r.Usage(&buf)
	assert.Equal(t, "  params   print params\n  view     open window\n", buf.String())
}
