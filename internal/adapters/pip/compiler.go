package pip

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Compile pins the requirements in input with pip-tools and returns the
// compiled requirement file, hashes included.
func (i *Installer) Compile(ctx context.Context, input, indexURL string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lockres-compile-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create temporary directory")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	output := filepath.Join(dir, "requirements.txt")
	args := []string{
		"-m", "piptools", "compile",
		"--allow-unsafe",
		"--generate-hashes",
		"--quiet",
		"--output-file", output,
	}
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}
	args = append(args, input)

	cmd := exec.CommandContext(ctx, i.python, args...) //nolint:gosec // interpreter comes from the session config
	stderr := &logWriter{logger: i.logger, level: "error"}
	cmd.Stderr = stderr
	err = cmd.Run()
	_ = stderr.Close()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "pip-compile failed"), "input", input)
	}

	data, err := os.ReadFile(output) //nolint:gosec // path is inside our temporary directory
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read compiled requirements")
	}
	return data, nil
}
