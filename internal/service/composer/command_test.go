package composer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInvocation_PrefersLocalPhar verifies the phar lookup and the system fallback.
func TestInvocation_PrefersLocalPhar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.Equal(t, "composer", Invocation(dir, "php", "composer.phar", "composer"))

	pharPath := filepath.Join(dir, "composer.phar")
	require.NoError(t, os.WriteFile(pharPath, []byte("phar"), 0o600))

	require.Equal(t,
		ShellQuote("/usr/bin/php")+" "+ShellQuote(pharPath),
		Invocation(dir, "/usr/bin/php", "composer.phar", "composer"))
}

// TestInvocation_IgnoresPharDirectory ensures a directory named like the phar is not executed.
func TestInvocation_IgnoresPharDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "composer.phar"), 0o755))

	require.Equal(t, "composer", Invocation(dir, "php", "composer.phar", "composer"))
	require.Equal(t, "composer", Invocation(dir, "php", "", "composer"))
}

// TestQuoteFor checks quoting for sh and cmd.exe.
func TestQuoteFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		goos string
		in   string
		want string
	}{
		{"linux", "/usr/bin/php", `'/usr/bin/php'`},
		{"linux", "/srv/my app/composer.phar", `'/srv/my app/composer.phar'`},
		{"linux", "/tmp/$HOME/`id`/composer.phar", "'/tmp/$HOME/`id`/composer.phar'"},
		{"darwin", "/Users/o'brien/composer.phar", `'/Users/o'\''brien/composer.phar'`},
		{"windows", `C:\Program Files\php\php.exe`, `"C:\Program Files\php\php.exe"`},
		{"windows", `C:\work\composer.phar`, `"C:\work\composer.phar"`},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, quoteFor(tc.goos, tc.in), "%s: %s", tc.goos, tc.in)
	}
}

// TestShellQuote_KeepsSpecialCharactersLiteral runs a quoted word through sh.
func TestShellQuote_KeepsSpecialCharactersLiteral(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	word := "it's $HOME `id` \\n"

	var out bytes.Buffer

	status, err := NewShellRunner().Run(context.Background(), Command{
		Line: "printf '%s' " + ShellQuote(word),
		Dir:  t.TempDir(),
	}, &out)
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Equal(t, word, out.String())
}

// TestInstallLine checks flag forwarding for every verbosity combination.
func TestInstallLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		noANSI bool
		quiet  bool
		want   string
	}{
		{false, false, "composer install"},
		{true, false, "composer install --no-ansi"},
		{false, true, "composer install --quiet"},
		{true, true, "composer install --no-ansi --quiet"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, InstallLine("composer", tc.noANSI, tc.quiet))
	}
}
