package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SET_CODE", "OUTPUT_ROOT_DIR", "SOURCE_IMAGES", "GENERATE_MONTAGE",
		"MONTAGE_IMAGE_INPUT_DIR", "MONTAGE_IMAGE_OUTPUT_DIR", "LOG_LEVEL", "REPORT_PATH"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMontageCommand(t *testing.T) {
	clearEnv(t)

	input := t.TempDir()
	for i := range 3 {
		img := imaging.New(5, 7, color.NRGBA{B: uint8(60 * i), A: 255})
		require.NoError(t, imaging.Save(img, filepath.Join(input, fmt.Sprintf("%d.png", i))))
	}
	output := t.TempDir()

	out, err := runRoot(t, "montage",
		"--set-code", "tokens",
		"--montage-input", input,
		"--montage-output", output,
		"--rows", "1", "--columns", "2",
		"--reserve-blank-cell=false",
	)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(output, "tokens_0.jpg"))
	assert.FileExists(t, filepath.Join(output, "tokens_1.jpg"))
	assert.Contains(t, out, "tokens: 3 images -> 2 sheets")
}

func TestMissingSetCode(t *testing.T) {
	clearEnv(t)

	_, err := runRoot(t, "fetch", "--output-root", t.TempDir())
	require.Error(t, err)

	var missing *config.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "SET_CODE", missing.Key)
}

func TestInvalidLogLevel(t *testing.T) {
	clearEnv(t)

	_, err := runRoot(t, "run", "--log-level", "chatty")
	assert.Error(t, err)
}
