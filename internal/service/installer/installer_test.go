package installer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/service/composer"
)

var (
	errConnectionRefused = errors.New("connection refused")
	errPHPMissing        = errors.New("php: executable file not found")
	errStartFailed       = errors.New("sh: not found")
)

// fakeFetcher serves a fixed body and records requested URLs.
type fakeFetcher struct {
	// body is returned for every request.
	body []byte
	// err fails every request when set.
	err error
	// urls collects the requested URLs.
	urls []string
}

// Get records the URL and returns the prepared body or error.
func (f *fakeFetcher) Get(_ context.Context, url string) (io.ReadCloser, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}

	return io.NopCloser(bytes.NewReader(f.body)), nil
}

// fakeEnvironment answers Check with a fixed error.
type fakeEnvironment struct {
	err error
}

// Check returns the prepared error.
func (f *fakeEnvironment) Check(context.Context) error {
	return f.err
}

// fakeRunner records composer commands instead of executing them.
type fakeRunner struct {
	status   int
	err      error
	output   string
	commands []composer.Command
}

// Run records cmd, writes the prepared output and returns the prepared status.
func (f *fakeRunner) Run(_ context.Context, cmd composer.Command, output io.Writer) (int, error) {
	f.commands = append(f.commands, cmd)
	_, _ = io.WriteString(output, f.output)

	return f.status, f.err
}

// fixture bundles an installer with its fakes.
type fixture struct {
	workDir   string
	fetcher   *fakeFetcher
	env       *fakeEnvironment
	runner    *fakeRunner
	output    *bytes.Buffer
	installer *Installer
}

// newFixture creates an installer rooted in a fresh temporary directory.
func newFixture(t *testing.T, body []byte, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		workDir: t.TempDir(),
		fetcher: &fakeFetcher{body: body},
		env:     new(fakeEnvironment),
		runner:  new(fakeRunner),
		output:  new(bytes.Buffer),
	}

	defaults := []Option{
		WithFetcher(f.fetcher),
		WithEnvironmentChecker(f.env),
		WithRunner(f.runner),
		WithOutput(f.output),
		WithTTYDetector(func() bool { return false }),
	}

	f.installer = New(config.Default(), f.workDir, append(defaults, opts...)...)

	return f
}

// leftoverArchives lists temporary archives remaining in the working directory.
func (f *fixture) leftoverArchives(t *testing.T) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(f.workDir, archivePrefix+"*"+archiveExtension))
	require.NoError(t, err)

	return matches
}

// skeletonZip builds an archive holding the given files.
func skeletonZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buffer := new(bytes.Buffer)
	writer := zip.NewWriter(buffer)

	for name, body := range files {
		w, err := writer.Create(name)
		require.NoError(t, err)

		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buffer.Bytes()
}

// TestScaffold_NamedTarget extracts into ./demo and runs composer there.
func TestScaffold_NamedTarget(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))
	f.runner.output = "Installing dependencies from lock file\n"

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.NoError(t, err)
	require.Equal(t, 0, status)

	target := filepath.Join(f.workDir, "demo")

	readme, err := os.ReadFile(filepath.Join(target, "README.txt"))
	require.NoError(t, err)
	require.Equal(t, "Grelo", string(readme))

	require.Len(t, f.runner.commands, 1)
	require.Equal(t, target, f.runner.commands[0].Dir)
	require.Equal(t, "composer install", f.runner.commands[0].Line)
	require.False(t, f.runner.commands[0].TTY)

	require.Equal(t, "Installing dependencies from lock file\n"+completionBanner+"\n", f.output.String())
	require.Empty(t, f.leftoverArchives(t))
}

// TestScaffold_ChannelSelectsURL verifies --dev picks develop and its absence picks master.
func TestScaffold_ChannelSelectsURL(t *testing.T) {
	t.Parallel()

	cases := map[bool]string{
		false: "https://github.com/ArtesanoMultimedia/GreloFramework/archive/refs/heads/master.zip",
		true:  "https://github.com/ArtesanoMultimedia/GreloFramework/archive/refs/heads/develop.zip",
	}

	for development, wantURL := range cases {
		f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

		_, err := f.installer.Scaffold(context.Background(), Request{Name: "demo", Development: development})
		require.NoError(t, err)
		require.Equal(t, []string{wantURL}, f.fetcher.urls)
	}
}

// TestScaffold_StripsGitHubRootFolder places composer.json directly in the target.
func TestScaffold_StripsGitHubRootFolder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{
		"GreloFramework-master/composer.json":    `{"name": "artesanomultimedia/grelo"}`,
		"GreloFramework-master/public/index.php": "<?php",
	}))

	_, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(f.workDir, "demo", "composer.json"))
	require.FileExists(t, filepath.Join(f.workDir, "demo", "public", "index.php"))
}

// TestScaffold_ExistingTarget refuses taken names before any network call.
func TestScaffold_ExistingTarget(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"directory", "file"} {
		f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

		path := filepath.Join(f.workDir, "demo")
		if kind == "directory" {
			require.NoError(t, os.Mkdir(path, 0o755))
		} else {
			require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		}

		status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
		require.ErrorIs(t, err, ErrTargetAlreadyExists, kind)
		require.Equal(t, 1, status)
		require.Empty(t, f.fetcher.urls, kind)
		require.Empty(t, f.runner.commands, kind)
	}
}

// TestScaffold_ForceIgnoresExistingTarget extracts over an existing directory.
func TestScaffold_ForceIgnoresExistingTarget(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

	target := filepath.Join(f.workDir, "demo")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "README.txt"), []byte("old"), 0o600))

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo", Force: true})
	require.NoError(t, err)
	require.Equal(t, 0, status)

	readme, err := os.ReadFile(filepath.Join(target, "README.txt"))
	require.NoError(t, err)
	require.Equal(t, "Grelo", string(readme))
}

// TestScaffold_CurrentDirectory accepts an empty-ish working directory for "" and ".".
func TestScaffold_CurrentDirectory(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "."} {
		f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

		require.NoError(t, os.Mkdir(filepath.Join(f.workDir, ".git"), 0o755))

		status, err := f.installer.Scaffold(context.Background(), Request{Name: name})
		require.NoError(t, err, "name %q", name)
		require.Equal(t, 0, status)
		require.FileExists(t, filepath.Join(f.workDir, "README.txt"))
		require.Equal(t, f.workDir, f.runner.commands[0].Dir)
	}
}

// TestScaffold_CurrentDirectoryWithLocalComposer runs the phar found in the working directory.
func TestScaffold_CurrentDirectoryWithLocalComposer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

	pharPath := filepath.Join(f.workDir, "composer.phar")
	require.NoError(t, os.WriteFile(pharPath, []byte("phar"), 0o600))

	_, err := f.installer.Scaffold(context.Background(), Request{Name: "."})
	require.NoError(t, err)

	want := composer.ShellQuote("php") + " " + composer.ShellQuote(pharPath) + " install"
	require.Equal(t, want, f.runner.commands[0].Line)
}

// TestScaffold_NonEmptyCurrentDirectory refuses a working directory holding files.
func TestScaffold_NonEmptyCurrentDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "index.php"), []byte("<?php"), 0o600))

	status, err := f.installer.Scaffold(context.Background(), Request{})
	require.ErrorIs(t, err, ErrTargetAlreadyExists)
	require.Equal(t, 1, status)
	require.Empty(t, f.fetcher.urls)

	// Force bypasses the guard.
	status, err = f.installer.Scaffold(context.Background(), Request{Force: true})
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Len(t, f.fetcher.urls, 1)
}

// TestScaffold_InvalidArchive names the URL and leaves nothing behind.
func TestScaffold_InvalidArchive(t *testing.T) {
	t.Parallel()

	f := newFixture(t, []byte("<html>404: Not Found</html>"))

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.ErrorIs(t, err, ErrInvalidArchive)
	require.Equal(t, 1, status)
	require.Contains(t, err.Error(), f.fetcher.urls[0])

	require.NoDirExists(t, filepath.Join(f.workDir, "demo"))
	require.Empty(t, f.leftoverArchives(t))
	require.Empty(t, f.runner.commands)
}

// TestScaffold_DownloadFailed wraps transport errors with the URL.
func TestScaffold_DownloadFailed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.fetcher.err = errConnectionRefused

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo", Development: true})
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.ErrorIs(t, err, errConnectionRefused)
	require.Equal(t, 1, status)
	require.Contains(t, err.Error(), "develop.zip")
	require.Empty(t, f.runner.commands)
}

// TestScaffold_UnsupportedEnvironment stops before touching the network.
func TestScaffold_UnsupportedEnvironment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.env.err = errPHPMissing

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.ErrorIs(t, err, ErrUnsupportedEnvironment)
	require.ErrorIs(t, err, errPHPMissing)
	require.Equal(t, 1, status)
	require.Empty(t, f.fetcher.urls)
}

// TestScaffold_ExtractionFailed still removes the temporary archive.
func TestScaffold_ExtractionFailed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))

	// A regular file where the target directory should go.
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "demo"), []byte("x"), 0o600))

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo", Force: true})
	require.ErrorIs(t, err, ErrExtractionFailed)
	require.Equal(t, 1, status)
	require.Empty(t, f.leftoverArchives(t))
	require.Empty(t, f.runner.commands)
}

// TestScaffold_ComposerFailure returns composer's status without the banner.
func TestScaffold_ComposerFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))
	f.runner.status = 2
	f.runner.output = "Your requirements could not be resolved\n"

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.NoError(t, err)
	require.Equal(t, 2, status)
	require.NotContains(t, f.output.String(), completionBanner)
}

// TestScaffold_RunnerError surfaces a composer that could not be started.
func TestScaffold_RunnerError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, skeletonZip(t, map[string]string{"README.txt": "Grelo"}))
	f.runner.status = -1
	f.runner.err = errStartFailed

	status, err := f.installer.Scaffold(context.Background(), Request{Name: "demo"})
	require.ErrorIs(t, err, errStartFailed)
	require.Equal(t, 1, status)
}

// TestScaffold_ForwardsVerbosityAndTTY passes --no-ansi, --quiet and the TTY decision to composer.
func TestScaffold_ForwardsVerbosityAndTTY(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		skeletonZip(t, map[string]string{"README.txt": "Grelo"}),
		WithTTYDetector(func() bool { return true }),
	)

	_, err := f.installer.Scaffold(context.Background(), Request{Name: "demo", Quiet: true, NoANSI: true})
	require.NoError(t, err)
	require.Equal(t, "composer install --no-ansi --quiet", f.runner.commands[0].Line)
	require.True(t, f.runner.commands[0].TTY)
}

// TestResolveTarget covers the working directory shortcuts and nested names.
func TestResolveTarget(t *testing.T) {
	t.Parallel()

	workDir := filepath.Join(string(filepath.Separator), "home", "dev")

	require.Equal(t, workDir, ResolveTarget(workDir, ""))
	require.Equal(t, workDir, ResolveTarget(workDir, "."))
	require.Equal(t, filepath.Join(workDir, "demo"), ResolveTarget(workDir, "demo"))
	require.Equal(t, filepath.Join(workDir, "apps", "demo"), ResolveTarget(workDir, "apps/demo"))
}

// TestArchiveFilename_Unique generates many names without collisions.
func TestArchiveFilename_Unique(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		name := archiveFilename(dir)

		require.Equal(t, dir, filepath.Dir(name))
		require.True(t, isArchiveName(filepath.Base(name)))
		require.True(t, strings.HasPrefix(filepath.Base(name), archivePrefix))

		_, duplicate := seen[name]
		require.False(t, duplicate, name)

		seen[name] = struct{}{}
	}
}

// TestChannelFor maps the development flag.
func TestChannelFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, ChannelStable, ChannelFor(false))
	require.Equal(t, ChannelDevelopment, ChannelFor(true))
}
