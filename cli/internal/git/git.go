// Package git exposes the version-control state the hook needs: the list of
// staged files and each file's staged diff. The Gateway interface lets tests
// inject a fake instead of a live repository.
package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zyzyva/summarizer/cli/internal/erruser"
)

// Gateway is the hook's view of the version-control system.
type Gateway interface {
	// ListStaged returns paths of files staged in the index, relative to the repo root.
	ListStaged() ([]string, error)
	// StagedDiff returns the staged unified diff for one file.
	StagedDiff(path string) (string, error)
}

// ExecGateway runs git subprocesses in Dir (empty = current directory).
type ExecGateway struct {
	Dir string
}

// ListStaged runs "git diff --cached --name-only" and returns the staged paths.
func (g *ExecGateway) ListStaged() ([]string, error) {
	out, err := g.run("diff", "--cached", "--name-only")
	if err != nil {
		return nil, erruser.New("Could not list staged files.", err)
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// StagedDiff runs "git diff --cached --no-color -- <path>" for one file.
func (g *ExecGateway) StagedDiff(path string) (string, error) {
	out, err := g.run("diff", "--cached", "--no-color", "--", path)
	if err != nil {
		return "", erruser.New("Could not read the staged diff for "+path+".", err)
	}
	return out, nil
}

func (g *ExecGateway) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.Dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("This directory is not inside a Git repository.", err)
	}
	return filepath.Abs(strings.TrimSpace(string(out)))
}

func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat", // prevent pager; subprocess output is captured
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}
