package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "user.go")
	require.NoError(t, os.WriteFile(model, []byte("package model\n"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pkg.go"), 0755))

	testCases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "model file", path: model},
		{name: "missing flag", path: "", wantErr: "missing -i"},
		{name: "not go", path: filepath.Join(dir, "user.txt"), wantErr: "is not a .go file"},
		{name: "test file", path: filepath.Join(dir, "user_test.go"), wantErr: "is a test or generated file"},
		{name: "generated file", path: filepath.Join(dir, "user_fields.gen.go"), wantErr: "is a test or generated file"},
		{name: "directory", path: filepath.Join(dir, "pkg.go"), wantErr: "is a directory"},
		{name: "not exist", path: filepath.Join(dir, "order.go"), wantErr: "no such file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkInput(tc.path)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
