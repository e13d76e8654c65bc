// Package pip implements the installer collaborator on top of "python -m pip".
package pip

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// Installer implements ports.Installer.
type Installer struct {
	python    string
	extraArgs []string
	logger    ports.Logger
}

// NewInstaller creates an Installer running python with extraArgs appended to
// every pip install invocation.
func NewInstaller(python string, extraArgs []string, logger ports.Logger) *Installer {
	if python == "" {
		python = DefaultPython
	}
	return &Installer{
		python:    python,
		extraArgs: extraArgs,
		logger:    logger,
	}
}

// Args returns the arguments passed to python for spec.
func (i *Installer) Args(spec domain.InstallSpec) []string {
	args := []string{"-m", "pip", "install", "--no-deps"}
	args = append(args, i.extraArgs...)

	switch {
	case spec.Kind == domain.SatisfierEditable:
		return append(args, "-e", spec.Path)
	case spec.Artifact != "" || spec.Path != "" || spec.URL != "":
		return append(args, spec.Target())
	case spec.Source != nil:
		if spec.Source.Kind == domain.SourceFindLinks {
			args = append(args, "--no-index", "--find-links", spec.Source.URL)
		} else {
			args = append(args, "--index-url", spec.Source.URL)
		}
		return append(args, spec.Name+"=="+spec.Version)
	default:
		return append(args, spec.Name)
	}
}

// Install runs pip for spec. Output is streamed line by line to the logger
// and to the vertex carried by ctx, if any.
func (i *Installer) Install(ctx context.Context, spec domain.InstallSpec) error {
	args := i.Args(spec)
	cmd := exec.CommandContext(ctx, i.python, args...) //nolint:gosec // interpreter comes from the session config

	stdout := &logWriter{logger: i.logger, level: "info"}
	stderr := &logWriter{logger: i.logger, level: "error"}
	var outW, errW io.Writer = stdout, stderr
	if vertex, ok := ports.VertexFromContext(ctx); ok {
		outW = io.MultiWriter(stdout, vertex.Stdout())
		errW = io.MultiWriter(stderr, vertex.Stderr())
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	err := cmd.Run()
	_ = stdout.Close()
	_ = stderr.Close()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		installErr := zerr.With(zerr.Wrap(domain.ErrInstallFailed, "pip install failed: "+err.Error()), "exit_code", exitCode)
		return zerr.With(installErr, "key", string(spec.Key))
	}
	return nil
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}
	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Warn(msg)
	}
}
