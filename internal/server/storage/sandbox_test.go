package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSandbox(t *testing.T) *Sandbox {
	t.Helper()
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)
	return sb
}

func TestSanitizeFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		raw  string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"dir/sub/", "sub"},
		{"my file (1).txt", "my_file__1_.txt"},
		{"...hidden", "hidden"},
		{".bashrc", "bashrc"},
		{"привет.txt", "______.txt"},
		{"", "f_1700000000"},
		{"..", "f_1700000000"},
		{"/", "f_1700000000"},
		{"a-b_c.d", "a-b_c.d"},
	}
	for _, tt := range tests {
		got, err := sanitizeFilename(tt.raw, now)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestSanitizeFilename_TooLong(t *testing.T) {
	_, err := SanitizeFilename(strings.Repeat("a", 256))
	require.ErrorIs(t, err, common.ErrorInvalidInput)

	got, err := SanitizeFilename(strings.Repeat("a", 255))
	require.NoError(t, err)
	assert.Len(t, got, 255)
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	now := time.Unix(42, 0)
	inputs := []string{
		"plain.txt", "../x/../y.tar.gz", "...", "a b c", "\x00\xff.bin",
		"über/straße", ".....dots", "tab\tname", `back\slash`, "",
	}
	for _, in := range inputs {
		once, err := sanitizeFilename(in, now)
		require.NoError(t, err, in)
		twice, err := sanitizeFilename(once, now)
		require.NoError(t, err, in)
		assert.Equal(t, once, twice, in)
		assert.Regexp(t, `^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`, once)
	}
}

func TestStripTraversal(t *testing.T) {
	assert.Equal(t, "etc/passwd", StripTraversal("../../etc/passwd"))
	assert.Equal(t, "a/b", StripTraversal("/a/b"))
	assert.Equal(t, "notes.txt", StripTraversal("notes.txt"))
}

func TestSandbox_UserRoot(t *testing.T) {
	sb := newTestSandbox(t)

	dir, err := sb.UserRoot("u1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sb.Root(), "u1"), dir)
	assert.DirExists(t, dir)

	for _, bad := range []string{"", ".", "..", ".staging", "a/b", `a\b`, "x\x00"} {
		_, err := sb.UserRoot(bad)
		assert.ErrorIs(t, err, common.ErrorInvalidPath, "%q", bad)
	}
}

func TestSandbox_ResolveContainment(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)
	_, err = sb.UserRoot("bob")
	require.NoError(t, err)

	inside := []string{
		"file.txt",
		"sub/dir/file.txt",
		"a/../b.txt",
		"./c.txt",
		"x/y/../../z.txt",
	}
	for _, p := range inside {
		got, err := sb.Resolve("alice", p)
		require.NoError(t, err, p)
		assert.True(t, within(userRoot, got), "%s -> %s", p, got)
	}

	escaping := []string{
		"",
		"   ",
		"..",
		"../bob/secret.txt",
		"../../etc/passwd",
		"a/../../b",
		"/etc/passwd",
		"/",
		`\windows`,
	}
	for _, p := range escaping {
		_, err := sb.Resolve("alice", p)
		assert.ErrorIs(t, err, common.ErrorInvalidPath, "%q", p)
	}
}

func TestSandbox_ResolveRejectsSymlinkEscape(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o600))

	if err := os.Symlink(outside, filepath.Join(userRoot, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(userRoot, "secret")))

	for _, p := range []string{"link/secret", "link/new.txt", "secret", "link"} {
		_, err := sb.Resolve("alice", p)
		assert.ErrorIs(t, err, common.ErrorInvalidPath, p)
	}
}

func TestSandbox_ResolveAllowsInternalSymlink(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(userRoot, "real"), 0o700))
	if err := os.Symlink(filepath.Join(userRoot, "real"), filepath.Join(userRoot, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := sb.Resolve("alice", "alias/f.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userRoot, "real", "f.txt"), got)
}

func TestSandbox_ResolveRejectsSymlinkLoop(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)

	if err := os.Symlink(filepath.Join(userRoot, "b"), filepath.Join(userRoot, "a")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(userRoot, "a"), filepath.Join(userRoot, "b")))

	for _, p := range []string{"a", "a/x", "b/x/y.txt"} {
		_, err := sb.Resolve("alice", p)
		assert.ErrorIs(t, err, common.ErrorInvalidPath, p)
	}
}

func TestSandbox_ResolveRejectsDanglingSymlink(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "gone")
	if err := os.Symlink(target, filepath.Join(userRoot, "dl")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	for _, p := range []string{"dl", "dl/new.txt"} {
		_, err := sb.Resolve("alice", p)
		assert.ErrorIs(t, err, common.ErrorInvalidPath, p)
	}
}

func TestSandbox_ResolveThroughFile(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(userRoot, "f.txt"), []byte("x"), 0o600))

	_, err = sb.Resolve("alice", "f.txt/inner")
	assert.ErrorIs(t, err, common.ErrorInvalidPath)
}

func TestSandbox_UsedBytes(t *testing.T) {
	sb := newTestSandbox(t)
	userRoot, err := sb.UserRoot("alice")
	require.NoError(t, err)

	used, err := sb.UsedBytes("alice")
	require.NoError(t, err)
	assert.Zero(t, used)

	require.NoError(t, os.WriteFile(filepath.Join(userRoot, "a"), make([]byte, 100), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(userRoot, "b"), make([]byte, 23), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(userRoot, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(userRoot, "sub", "nested"), make([]byte, 1000), 0o600))

	used, err = sb.UsedBytes("alice")
	require.NoError(t, err)
	assert.EqualValues(t, 123, used, "nested files are not counted")
}

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/srv/data/u1")
	assert.True(t, within(root, root))
	assert.True(t, within(root, filepath.Join(root, "a", "b")))
	assert.True(t, within(root, filepath.Join(root, "..hidden")))
	assert.False(t, within(root, filepath.FromSlash("/srv/data/u10")))
	assert.False(t, within(root, filepath.FromSlash("/srv/data")))
	assert.False(t, within(root, filepath.FromSlash("/etc")))
}
