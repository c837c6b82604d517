package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	cerrors "github.com/codesentry/codesentry/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (and their parent directories) under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("pass\n"), 0644))
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid project", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "pkg/app.py")

		got, err := Validate(root)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))

		want, err := filepath.EvalSymlinks(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "app.py")
		chdir(t, root)

		got, err := Validate(".")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Validate(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeInvalidPath, cerrors.CodeOf(err))
		assert.Contains(t, cerrors.MessageOf(err), "Path does not exist")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "app.py")

		_, err := Validate(filepath.Join(root, "app.py"))
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeInvalidPath, cerrors.CodeOf(err))
		assert.Contains(t, cerrors.MessageOf(err), "Path is not a directory")
	})

	t.Run("no source files", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "README.md", "src/main.go")

		_, err := Validate(root)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeNothingToAnalyze, cerrors.CodeOf(err))
		assert.Contains(t, cerrors.MessageOf(err), "Nothing to analyze")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Validate("")
		assert.Equal(t, cerrors.ErrCodeInvalidPath, cerrors.CodeOf(err))
	})
}

func TestDetectTests(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		dirs       []string
		wantFound  bool
		wantReason string
	}{
		{
			name:       "tests directory wins over test files",
			files:      []string{"app.py", "a/test_alpha.py"},
			dirs:       []string{"tests"},
			wantFound:  true,
			wantReason: "Found tests/ directory",
		},
		{
			name:       "test_ prefix",
			files:      []string{"app.py", "test_foo.py"},
			wantFound:  true,
			wantReason: "Found test file: test_foo.py",
		},
		{
			name:       "_test suffix",
			files:      []string{"app.py", "pkg/foo_test.py"},
			wantFound:  true,
			wantReason: "Found test file: foo_test.py",
		},
		{
			name:       "first match in walk order",
			files:      []string{"b/test_beta.py", "a/test_alpha.py"},
			wantFound:  true,
			wantReason: "Found test file: test_alpha.py",
		},
		{
			name:       "root files before nested directories",
			files:      []string{"app/test_nested.py", "test_root.py"},
			wantFound:  true,
			wantReason: "Found test file: test_root.py",
		},
		{
			name:       "directory files before its subdirectories",
			files:      []string{"pkg/a/test_deep.py", "pkg/test_mid.py", "z/test_last.py"},
			wantFound:  true,
			wantReason: "Found test file: test_mid.py",
		},
		{
			name:       "tests file is not a directory",
			files:      []string{"app.py", "tests"},
			wantFound:  false,
			wantReason: NoTestsReason,
		},
		{
			name:       "non-python test names ignored",
			files:      []string{"app.py", "test_data.json", "foo_test.go"},
			wantFound:  false,
			wantReason: NoTestsReason,
		},
		{
			name:       "no tests",
			files:      []string{"app.py", "lib/util.py"},
			wantFound:  false,
			wantReason: NoTestsReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files...)
			for _, d := range tt.dirs {
				require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
			}

			found, reason := DetectTests(root)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestIsTestFile(t *testing.T) {
	assert.True(t, isTestFile("test_app.py"))
	assert.True(t, isTestFile("app_test.py"))
	assert.False(t, isTestFile("testing.py"))
	assert.False(t, isTestFile("contest.py"))
	assert.False(t, isTestFile("test_app.pyc"))
}

func TestGitInfo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	t.Run("not a repository", func(t *testing.T) {
		_, err := GitInfo(context.Background(), t.TempDir())
		assert.Error(t, err)
	})

	t.Run("repository with a commit", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "app.py")
		for _, args := range [][]string{
			{"init", "-q", "-b", "main"},
			{"-c", "user.name=test", "-c", "user.email=test@example.com", "add", "app.py"},
			{"-c", "user.name=test", "-c", "user.email=test@example.com", "commit", "-q", "-m", "init"},
		} {
			cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
			out, err := cmd.CombinedOutput()
			require.NoError(t, err, string(out))
		}

		git, err := GitInfo(context.Background(), root)
		require.NoError(t, err)
		assert.Len(t, git.Commit, 40)
		assert.Equal(t, "main", git.Branch)
	})
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(old)) })
}
