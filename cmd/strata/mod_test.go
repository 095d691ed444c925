package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApp_Demo(t *testing.T) {
	app := makeApp()

	out := new(bytes.Buffer)
	app.Writer = out

	err := app.Run([]string{"strata", "demo"})
	require.NoError(t, err)

	output := out.String()
	require.Contains(t, output, "a = 10\nb = 20\na = 30\nb = <absent>\nkeys = [a c]\n")
	require.Contains(t, output, "After rollback:\na = 10\nb = 20\nkeys = [a b]\n")
	require.Contains(t, output, "After committed delete:\na = <absent>\nkeys = [b]\n")
	require.Contains(t, output, "keys = [x y z]\n")
	require.Contains(t, output, "x = 100\n")
	require.Contains(t, output, "z = 300\n")
}

func TestApp_Exec(t *testing.T) {
	doc := "steps:\n  - op: set\n    key: a\n    value: \"10\"\n  - op: get\n    key: a\n"

	path := filepath.Join(t.TempDir(), "script.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte(doc), 0644))

	app := makeApp()

	out := new(bytes.Buffer)
	app.Writer = out

	err := app.Run([]string{"strata", "exec", "--script", path})
	require.NoError(t, err)
	require.Equal(t, "a = 10\n", out.String())
}

func TestApp_Exec_MissingFile(t *testing.T) {
	app := makeApp()
	app.Writer = ioutil.Discard

	err := app.Run([]string{"strata", "exec", "--script", "does-not-exist.yml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open script")
}
