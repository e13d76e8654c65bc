package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/cmd/lockres/commands"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/build"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/lockres/internal/engine/satisfier"
	"go.trai.ch/lockres/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

type mockApp struct {
	resolveFunc func(ctx context.Context, opts app.ResolveOptions) (*app.ResolveResult, error)
	installFunc func(ctx context.Context, opts app.InstallOptions) (*app.InstallResult, error)
	verifyFunc  func(ctx context.Context, lockPath string, key domain.Key, path string) (bool, error)
	checkFunc   func(ctx context.Context, lockPath string) (*domain.Document, error)
	lockFunc    func(ctx context.Context, opts app.LockOptions) (*domain.Document, error)
}

func (m *mockApp) Resolve(ctx context.Context, opts app.ResolveOptions) (*app.ResolveResult, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, opts)
	}
	return resolveResult(nil), nil
}

func (m *mockApp) Install(ctx context.Context, opts app.InstallOptions) (*app.InstallResult, error) {
	if m.installFunc != nil {
		return m.installFunc(ctx, opts)
	}
	return &app.InstallResult{ResolveResult: resolveResult(nil), Report: &scheduler.Report{}}, nil
}

func (m *mockApp) Verify(ctx context.Context, lockPath string, key domain.Key, path string) (bool, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, lockPath, key, path)
	}
	return true, nil
}

func (m *mockApp) Check(ctx context.Context, lockPath string) (*domain.Document, error) {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, lockPath)
	}
	return &domain.Document{}, nil
}

func (m *mockApp) Lock(ctx context.Context, opts app.LockOptions) (*domain.Document, error) {
	if m.lockFunc != nil {
		return m.lockFunc(ctx, opts)
	}
	return &domain.Document{}, nil
}

type fakeLogs struct {
	verbose, json bool
}

func (f *fakeLogs) SetVerbose(v bool) { f.verbose = v }
func (f *fakeLogs) SetJSON(v bool)    { f.json = v }

type fakeExporter struct {
	paths []string
}

func (f *fakeExporter) WriteTextfile(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func resolveResult(failures map[domain.Key]error) *app.ResolveResult {
	specs := map[domain.Key]domain.InstallSpec{
		"idna": {
			Key: "idna", Name: "idna", Kind: domain.SatisfierIndirect, Version: "3.6",
			URL: "https://files.example/idna-3.6-py3-none-any.whl",
		},
		"requests": {
			Key: "requests", Name: "requests", Kind: domain.SatisfierIndirect, Version: "2.31.0",
			Source: &domain.EffectiveSource{ID: "pypi", Kind: domain.SourceSimple, URL: "https://pypi.org/simple"},
		},
	}
	g := domain.NewResolvedGraph(domain.RootKey, map[domain.Key][]domain.Key{
		domain.RootKey: {"requests"},
		"requests":     {"idna"},
		"idna":         nil,
	}, nil, nil)
	res := &satisfier.Resolution{Specs: specs, Failures: failures}
	if res.Failures == nil {
		res.Failures = map[domain.Key]error{}
	}
	return &app.ResolveResult{
		SessionID:  "session-1",
		LockPath:   domain.LockFileName,
		Graph:      g,
		Resolution: res,
		Specs:      res.Ordered(g),
	}
}

func execute(t *testing.T, cli *commands.CLI, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cli.SetOutput(out, new(bytes.Buffer))
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestCommands_Resolve(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.ResolveOptions
		mock := &mockApp{
			resolveFunc: func(_ context.Context, opts app.ResolveOptions) (*app.ResolveResult, error) {
				captured = opts
				return resolveResult(nil), nil
			},
		}

		out, err := execute(t, commands.New(mock),
			"--config", "lockres.toml",
			"resolve",
			"--lock", "other.lock.json",
			"--root", "",
			"--root", "[test]",
			"--env", "sys_platform=win32",
			"--override", "pypi=https://mirror.example/simple",
			"--offline",
			"--concurrency", "3",
		)
		require.NoError(t, err)

		assert.Equal(t, "lockres.toml", captured.ConfigPath)
		assert.Equal(t, "other.lock.json", captured.LockPath)
		assert.Equal(t, []domain.Key{domain.RootKey, "[test]"}, captured.Roots)
		assert.Equal(t, marker.Environment{"sys_platform": "win32"}, captured.Env)
		assert.Equal(t, map[string]string{"pypi": "https://mirror.example/simple"}, captured.Overrides)
		assert.True(t, captured.Offline)
		assert.Equal(t, 3, captured.Concurrency)

		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "https://files.example/idna-3.6-py3-none-any.whl")
		assert.Contains(t, out, "requests==2.31.0 (https://pypi.org/simple)")
	})

	t.Run("rejects invalid root", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(context.Context, app.ResolveOptions) (*app.ResolveResult, error) {
				panic("should not be called")
			},
		}

		_, err := execute(t, commands.New(mock), "resolve", "--root", "Not A Key")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidKey)
	})

	t.Run("prints json", func(t *testing.T) {
		out, err := execute(t, commands.New(&mockApp{}), "resolve", "--json")
		require.NoError(t, err)

		var view struct {
			Session string   `json:"session"`
			Order   []string `json:"order"`
			Specs   []struct {
				Key       string `json:"key"`
				Kind      string `json:"kind"`
				SourceURL string `json:"source_url"`
			} `json:"specs"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.Equal(t, "session-1", view.Session)
		assert.Equal(t, []string{"idna", "requests", ""}, view.Order)
		require.Len(t, view.Specs, 2)
		assert.Equal(t, "indirect", view.Specs[1].Kind)
		assert.Equal(t, "https://pypi.org/simple", view.Specs[1].SourceURL)
	})

	t.Run("reports partial results", func(t *testing.T) {
		failure := zerr.With(zerr.Wrap(domain.ErrPathNotFound, "missing"), "key", "mylib")
		mock := &mockApp{
			resolveFunc: func(context.Context, app.ResolveOptions) (*app.ResolveResult, error) {
				res := resolveResult(map[domain.Key]error{"mylib": failure})
				return res, res.Resolution.Err()
			},
		}

		out, err := execute(t, commands.New(mock), "resolve")
		var exitErr *commands.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.Code)
		assert.True(t, exitErr.Reported)
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
		assert.Contains(t, out, "mylib")
		assert.Contains(t, out, "unresolved")
	})
}

func TestCommands_Install(t *testing.T) {
	t.Run("passes python", func(t *testing.T) {
		var captured app.InstallOptions
		mock := &mockApp{
			installFunc: func(_ context.Context, opts app.InstallOptions) (*app.InstallResult, error) {
				captured = opts
				return &app.InstallResult{
					ResolveResult: resolveResult(nil),
					Report: &scheduler.Report{Statuses: map[domain.Key]domain.NodeStatus{
						"idna": domain.NodeStatusInstalled, "requests": domain.NodeStatusInstalled,
					}},
				}, nil
			},
		}

		out, err := execute(t, commands.New(mock), "install", "--python", "python3.12", "--lock", "a.lock.json")
		require.NoError(t, err)
		assert.Equal(t, "python3.12", captured.Python)
		assert.Equal(t, "a.lock.json", captured.LockPath)
		assert.Contains(t, out, "installed")
		assert.False(t, captured.Force)
	})

	t.Run("passes force", func(t *testing.T) {
		var captured app.InstallOptions
		mock := &mockApp{
			installFunc: func(_ context.Context, opts app.InstallOptions) (*app.InstallResult, error) {
				captured = opts
				return &app.InstallResult{ResolveResult: resolveResult(nil), Report: &scheduler.Report{}}, nil
			},
		}

		_, err := execute(t, commands.New(mock), "install", "--force")
		require.NoError(t, err)
		assert.True(t, captured.Force)
	})

	t.Run("mismatch exits with code 2", func(t *testing.T) {
		mismatch := zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "bad"), "key", "idna")
		blocked := zerr.With(zerr.Wrap(domain.ErrDependencyBlocked, "blocked"), "key", "requests")
		mock := &mockApp{
			installFunc: func(context.Context, app.InstallOptions) (*app.InstallResult, error) {
				return &app.InstallResult{
					ResolveResult: resolveResult(nil),
					Report: &scheduler.Report{
						Statuses: map[domain.Key]domain.NodeStatus{
							"idna": domain.NodeStatusFailed, "requests": domain.NodeStatusBlocked,
						},
						Errors: map[domain.Key]error{"idna": mismatch, "requests": blocked},
					},
				}, errors.Join(domain.ErrInstallExecutionFailed, mismatch, blocked)
			},
		}

		_, err := execute(t, commands.New(mock), "install")
		var exitErr *commands.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, commands.ExitCodeMismatch, exitErr.Code)
	})

	t.Run("install failure exits with code 1", func(t *testing.T) {
		failed := zerr.With(zerr.Wrap(domain.ErrInstallFailed, "pip failed"), "key", "idna")
		mock := &mockApp{
			installFunc: func(context.Context, app.InstallOptions) (*app.InstallResult, error) {
				return &app.InstallResult{
					ResolveResult: resolveResult(nil),
					Report: &scheduler.Report{
						Statuses: map[domain.Key]domain.NodeStatus{"idna": domain.NodeStatusFailed},
						Errors:   map[domain.Key]error{"idna": failed},
					},
				}, errors.Join(domain.ErrInstallExecutionFailed, failed)
			},
		}

		_, err := execute(t, commands.New(mock), "install", "--json")
		var exitErr *commands.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.Code)
	})
}

func TestCommands_Verify(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var gotKey domain.Key
		var gotPath string
		mock := &mockApp{
			verifyFunc: func(_ context.Context, _ string, key domain.Key, path string) (bool, error) {
				gotKey, gotPath = key, path
				return true, nil
			},
		}

		out, err := execute(t, commands.New(mock), "verify", "--key", "idna", "idna.whl")
		require.NoError(t, err)
		assert.Equal(t, domain.Key("idna"), gotKey)
		assert.Equal(t, "idna.whl", gotPath)
		assert.Contains(t, out, "idna.whl: ok")
	})

	t.Run("mismatch", func(t *testing.T) {
		mock := &mockApp{
			verifyFunc: func(context.Context, string, domain.Key, string) (bool, error) {
				return false, nil
			},
		}

		out, err := execute(t, commands.New(mock), "verify", "--key", "idna", "idna.whl")
		var exitErr *commands.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, commands.ExitCodeMismatch, exitErr.Code)
		assert.ErrorIs(t, err, domain.ErrDigestMismatch)
		assert.Contains(t, out, "digest mismatch")
	})

	t.Run("requires key", func(t *testing.T) {
		_, err := execute(t, commands.New(&mockApp{}), "verify", "idna.whl")
		require.Error(t, err)
	})
}

func TestCommands_Check(t *testing.T) {
	mock := &mockApp{
		checkFunc: func(_ context.Context, lockPath string) (*domain.Document, error) {
			assert.Equal(t, "x.lock.json", lockPath)
			return &domain.Document{
				Nodes:       map[domain.Key]*domain.Node{domain.RootKey: {}},
				Fingerprint: "abc",
			}, nil
		},
	}

	out, err := execute(t, commands.New(mock), "check", "--lock", "x.lock.json")
	require.NoError(t, err)
	assert.Contains(t, out, "x.lock.json: ok (1 dependencies, 0 sources, fingerprint abc)")
}

func TestCommands_Lock(t *testing.T) {
	var captured app.LockOptions
	mock := &mockApp{
		lockFunc: func(_ context.Context, opts app.LockOptions) (*domain.Document, error) {
			captured = opts
			return &domain.Document{}, nil
		},
	}

	out, err := execute(t, commands.New(mock),
		"lock", "requirements.in", "-o", "out.lock.json", "--index-url", "https://mirror.example/simple", "--compile")
	require.NoError(t, err)
	assert.Equal(t, app.LockOptions{
		Input:    "requirements.in",
		Output:   "out.lock.json",
		IndexURL: "https://mirror.example/simple",
		Compile:  true,
	}, captured)
	assert.Contains(t, out, "wrote out.lock.json")
}

func TestCommands_GlobalFlags(t *testing.T) {
	logs := &fakeLogs{}
	exporter := &fakeExporter{}
	mock := &mockApp{
		checkFunc: func(context.Context, string) (*domain.Document, error) {
			return nil, errors.New("broken")
		},
	}

	cli := commands.New(mock, commands.WithLogSettings(logs), commands.WithMetricsExporter(exporter))
	_, err := execute(t, cli, "check", "--verbose", "--log-json", "--metrics-file", "metrics.prom")
	require.Error(t, err)

	assert.True(t, logs.verbose)
	assert.True(t, logs.json)
	assert.Equal(t, []string{"metrics.prom"}, exporter.paths)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, commands.New(&mockApp{}), "version")
	require.NoError(t, err)
	assert.Equal(t, "lockres version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", out)
}

func TestCommands_VersionFlag(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		t.Run(flag, func(t *testing.T) {
			out, err := execute(t, commands.New(&mockApp{}), flag)
			require.NoError(t, err)
			assert.Equal(t, "lockres version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", out)
		})
	}
}

func TestCommands_VerboseAlongsideVersionFlag(t *testing.T) {
	logs := &fakeLogs{}
	cli := commands.New(&mockApp{}, commands.WithLogSettings(logs))

	_, err := execute(t, cli, "resolve", "--verbose")
	require.NoError(t, err)
	assert.True(t, logs.verbose)
}
