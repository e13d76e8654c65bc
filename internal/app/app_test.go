package app_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/adapters/fs"
	"go.trai.ch/lockres/internal/adapters/lockfile"
	"go.trai.ch/lockres/internal/adapters/metrics"
	"go.trai.ch/lockres/internal/adapters/state"
	"go.trai.ch/lockres/internal/adapters/telemetry"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/core/ports/mocks"
	"go.trai.ch/lockres/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

var idnaBytes = []byte("idna-3.6-py3-none-any.whl")

const lockTemplate = `{
    "dependencies": {
        "": {
            "dependencies": {
                "requests": null,
                "colorama": "sys_platform == 'win32'",
                "mylib": null
            }
        },
        "requests": {
            "dependencies": {"idna": null},
            "python": {"name": "requests", "source": "pypi", "version": "2.31.0"}
        },
        "idna": {
            "python": {"name": "idna", "source": "pypi", "version": "3.6"}
        },
        "colorama": {
            "python": {"name": "colorama", "source": "pypi", "version": "0.4.6"}
        },
        "mylib": {
            "python": {"name": "mylib", "path": "src/mylib", "editable": true}
        }
    },
    "sources": {
        "pypi": {"type": "simple", "url": "https://pypi.org/simple"}
    },
    "validations": {
        "idna": ["sha256:%s"]
    }
}`

type harness struct {
	app       *app.App
	lockPath  string
	index     *mocks.MockIndexClient
	download  *mocks.MockDownloader
	installer *mocks.MockInstaller
	compiler  *fakeCompiler
	store     ports.InstallStore
	offline   []bool
}

type fakeCompiler struct {
	output []byte
	input  string
}

func (f *fakeCompiler) Compile(_ context.Context, input, _ string) ([]byte, error) {
	f.input = input
	return f.output, nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "mylib"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "mylib", "setup.py"), []byte("setup()"), 0o600))

	sum := sha256.Sum256(idnaBytes)
	lockPath := filepath.Join(dir, "pyproject.lock.json")
	doc := fmt.Sprintf(lockTemplate, hex.EncodeToString(sum[:]))
	require.NoError(t, os.WriteFile(lockPath, []byte(doc), 0o600))

	cfg := domain.DefaultSessionConfig()
	cfg.Environment = marker.Environment{"sys_platform": "linux", "python_version": "3.12"}
	cfg.Concurrency = 2

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).DoAndReturn(func(string) (*domain.SessionConfig, error) {
		c := *cfg
		return &c, nil
	}).AnyTimes()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	m := metrics.New()
	h := &harness{
		lockPath:  lockPath,
		index:     mocks.NewMockIndexClient(ctrl),
		download:  mocks.NewMockDownloader(ctrl),
		installer: mocks.NewMockInstaller(ctrl),
		compiler:  &fakeCompiler{},
	}

	h.app = app.New(
		loader,
		lockfile.NewLoader(),
		fs.NewInspector(fs.NewHasher(fs.NewWalker())),
		scheduler.NewFactory(telemetry.NewNoop(), m, log),
		m,
		log,
	).WithArtifactDir(t.TempDir()).WithSessionFactory(
		func(_ context.Context, _ *domain.SessionConfig, offline bool) (*app.Session, error) {
			h.offline = append(h.offline, offline)
			s := &app.Session{
				Downloader: h.download,
				Installer:  h.installer,
				Compiler:   h.compiler,
				Store:      h.store,
			}
			if !offline {
				s.Index = h.index
			}
			return s, nil
		})
	return h
}

func (h *harness) expectIndex() {
	h.index.EXPECT().FetchIndex(gomock.Any(), gomock.Any(), "requests", "2.31.0").
		Return("https://files.example/requests-2.31.0-py3-none-any.whl", nil)
	h.index.EXPECT().FetchIndex(gomock.Any(), gomock.Any(), "idna", "3.6").
		Return("https://files.example/idna-3.6-py3-none-any.whl", nil)
}

func keys(specs []domain.InstallSpec) []domain.Key {
	out := make([]domain.Key, len(specs))
	for i, s := range specs {
		out[i] = s.Key
	}
	return out
}

func TestApp_Resolve(t *testing.T) {
	h := newHarness(t)
	h.expectIndex()

	res, err := h.app.Resolve(context.Background(), app.ResolveOptions{LockPath: h.lockPath})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.False(t, res.Graph.Contains("colorama"))
	assert.ElementsMatch(t, []domain.Key{"idna", "mylib", "requests"}, keys(res.Specs))
	assert.Less(t, indexOf(res.Specs, "idna"), indexOf(res.Specs, "requests"))

	mylib := res.Resolution.Specs["mylib"]
	assert.Equal(t, domain.SatisfierEditable, mylib.Kind)
	assert.Equal(t, filepath.Join(filepath.Dir(h.lockPath), "src", "mylib"), mylib.Path)

	assert.Equal(t, "https://files.example/idna-3.6-py3-none-any.whl", res.Resolution.Specs["idna"].URL)
	assert.Equal(t, []bool{false}, h.offline)
}

func TestApp_Resolve_EnvironmentAndOverrides(t *testing.T) {
	h := newHarness(t)

	res, err := h.app.Resolve(context.Background(), app.ResolveOptions{
		LockPath:  h.lockPath,
		Env:       marker.Environment{"sys_platform": "win32"},
		Overrides: map[string]string{"pypi": "https://mirror.example/simple"},
		Offline:   true,
	})
	require.NoError(t, err)

	assert.True(t, res.Graph.Contains("colorama"))
	spec := res.Resolution.Specs["colorama"]
	require.NotNil(t, spec.Source)
	assert.Equal(t, "https://mirror.example/simple", spec.Source.URL)
	assert.Equal(t, domain.SourceSimple, spec.Source.Kind)
	assert.Empty(t, spec.URL)
	assert.Equal(t, []bool{true}, h.offline)
}

func TestApp_Resolve_Roots(t *testing.T) {
	h := newHarness(t)

	res, err := h.app.Resolve(context.Background(), app.ResolveOptions{
		LockPath: h.lockPath,
		Roots:    []domain.Key{"requests"},
		Offline:  true,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Key{"idna", "requests"}, keys(res.Specs))
}

func TestApp_Resolve_PartialFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.RemoveAll(filepath.Join(filepath.Dir(h.lockPath), "src")))

	res, err := h.app.Resolve(context.Background(), app.ResolveOptions{LockPath: h.lockPath, Offline: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolutionFailed)
	assert.ErrorIs(t, err, domain.ErrPathNotFound)

	require.NotNil(t, res)
	assert.Contains(t, res.Resolution.Failures, domain.Key("mylib"))
	assert.Contains(t, res.Resolution.Specs, domain.Key("requests"))
}

func TestApp_Resolve_GraphError(t *testing.T) {
	h := newHarness(t)
	cyclic := `{"dependencies": {
        "": {"dependencies": {"a": null}},
        "a": {"dependencies": {"b": null}},
        "b": {"dependencies": {"a": null}}
    }}`
	require.NoError(t, os.WriteFile(h.lockPath, []byte(cyclic), 0o600))

	res, err := h.app.Resolve(context.Background(), app.ResolveOptions{LockPath: h.lockPath, Offline: true})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestApp_Install(t *testing.T) {
	h := newHarness(t)
	h.expectIndex()

	h.download.EXPECT().Download(gomock.Any(), "https://files.example/idna-3.6-py3-none-any.whl").Return(idnaBytes, nil)
	h.download.EXPECT().Download(gomock.Any(), "https://files.example/requests-2.31.0-py3-none-any.whl").
		Return([]byte("requests"), nil)

	var (
		mu        sync.Mutex
		installed []domain.Key
	)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, spec domain.InstallSpec) error {
			mu.Lock()
			defer mu.Unlock()
			installed = append(installed, spec.Key)
			return nil
		}).Times(3)

	res, err := h.app.Install(context.Background(), app.InstallOptions{
		ResolveOptions: app.ResolveOptions{LockPath: h.lockPath},
		Python:         "python3.12",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.Count(domain.NodeStatusInstalled))
	assert.Equal(t, domain.NodeStatusSkipped, res.Report.Statuses[domain.RootKey])
	assert.ElementsMatch(t, []domain.Key{"idna", "mylib", "requests"}, installed)
}

func TestApp_Install_SkipsRecordedNodes(t *testing.T) {
	h := newHarness(t)
	store, err := state.NewStore(filepath.Join(t.TempDir(), domain.InstallStateFileName))
	require.NoError(t, err)
	h.store = store

	opts := app.InstallOptions{ResolveOptions: app.ResolveOptions{LockPath: h.lockPath}}

	h.expectIndex()
	h.download.EXPECT().Download(gomock.Any(), "https://files.example/idna-3.6-py3-none-any.whl").Return(idnaBytes, nil)
	h.download.EXPECT().Download(gomock.Any(), "https://files.example/requests-2.31.0-py3-none-any.whl").
		Return([]byte("requests"), nil)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	res, err := h.app.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Count(domain.NodeStatusInstalled))

	rec, err := store.Get("idna")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.InputHash)

	h.expectIndex()
	res, err = h.app.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Count(domain.NodeStatusCached))
	assert.Zero(t, res.Report.Count(domain.NodeStatusInstalled))

	h.expectIndex()
	h.download.EXPECT().Download(gomock.Any(), "https://files.example/idna-3.6-py3-none-any.whl").Return(idnaBytes, nil)
	h.download.EXPECT().Download(gomock.Any(), "https://files.example/requests-2.31.0-py3-none-any.whl").
		Return([]byte("requests"), nil)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	opts.Force = true
	res, err = h.app.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Count(domain.NodeStatusInstalled))
}

func TestApp_Install_DigestMismatch(t *testing.T) {
	h := newHarness(t)
	h.expectIndex()

	h.download.EXPECT().Download(gomock.Any(), "https://files.example/idna-3.6-py3-none-any.whl").
		Return([]byte("tampered"), nil)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	res, err := h.app.Install(context.Background(), app.InstallOptions{
		ResolveOptions: app.ResolveOptions{LockPath: h.lockPath},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInstallExecutionFailed)
	assert.ErrorIs(t, err, domain.ErrDigestMismatch)

	require.NotNil(t, res)
	assert.Equal(t, domain.NodeStatusFailed, res.Report.Statuses["idna"])
	assert.Equal(t, domain.NodeStatusBlocked, res.Report.Statuses["requests"])
	assert.Equal(t, domain.NodeStatusInstalled, res.Report.Statuses["mylib"])
	assert.True(t, res.Report.OnlyMismatches())
}

func TestApp_Verify(t *testing.T) {
	h := newHarness(t)
	artifact := filepath.Join(t.TempDir(), "idna-3.6-py3-none-any.whl")
	require.NoError(t, os.WriteFile(artifact, idnaBytes, 0o600))

	ok, err := h.app.Verify(context.Background(), h.lockPath, "idna", artifact)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(artifact, []byte("tampered"), 0o600))
	ok, err = h.app.Verify(context.Background(), h.lockPath, "idna", artifact)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.app.Verify(context.Background(), h.lockPath, "requests", artifact)
	require.NoError(t, err)
	assert.True(t, ok, "a key without validations always passes")

	_, err = h.app.Verify(context.Background(), h.lockPath, "missing", artifact)
	assert.ErrorIs(t, err, domain.ErrUnknownKey)
}

func TestApp_Check(t *testing.T) {
	h := newHarness(t)

	doc, err := h.app.Check(context.Background(), h.lockPath)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 5)

	bad := `{"dependencies": {"Bad Key": {}, "a": {"dependencies": {"a": "python_version <"}}}}`
	require.NoError(t, os.WriteFile(h.lockPath, []byte(bad), 0o600))

	_, err = h.app.Check(context.Background(), h.lockPath)
	var derr *domain.DocumentError
	require.ErrorAs(t, err, &derr)
	assert.GreaterOrEqual(t, len(derr.Violations), 2)
}

const compiled = `click==8.1.7 \
    --hash=sha256:ae74fb96c20a0277a1d615f1e4d73c8414f5a98db8b799a7931d1582f3390c28
    # via -r requirements.in
`

func TestApp_Lock(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "requirements.txt")
	output := filepath.Join(dir, "pyproject.lock.json")
	require.NoError(t, os.WriteFile(input, []byte(compiled), 0o600))

	doc, err := h.app.Lock(context.Background(), app.LockOptions{Input: input, Output: output})
	require.NoError(t, err)
	assert.Contains(t, doc.Nodes, domain.Key("click"))

	loaded, err := h.app.Check(context.Background(), output)
	require.NoError(t, err)
	assert.Equal(t, []domain.Key{"click"}, loaded.Nodes[domain.RootKey].Targets())
	assert.Empty(t, h.offline, "lock without compile needs no session")
}

func TestApp_Lock_Compile(t *testing.T) {
	h := newHarness(t)
	h.compiler.output = []byte(compiled)
	output := filepath.Join(t.TempDir(), "pyproject.lock.json")

	_, err := h.app.Lock(context.Background(), app.LockOptions{
		Input:   "requirements.in",
		Output:  output,
		Compile: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "requirements.in", h.compiler.input)
	assert.Equal(t, []bool{true}, h.offline)

	_, err = os.Stat(output)
	require.NoError(t, err)
}

func TestApp_Lock_MissingInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.Lock(context.Background(), app.LockOptions{
		Input:  filepath.Join(t.TempDir(), "missing.txt"),
		Output: filepath.Join(t.TempDir(), "pyproject.lock.json"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func indexOf(specs []domain.InstallSpec, key domain.Key) int {
	for i, s := range specs {
		if s.Key == key {
			return i
		}
	}
	return -1
}
