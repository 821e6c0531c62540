// Package diff is the snapshot source for a review round. It asks git which
// files changed (working tree vs HEAD, or merge-base(base, HEAD) vs HEAD)
// and materializes full before/after content for each one.
package diff

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/revloop/internal/model"
)

// Errors a caller can branch on with errors.Is.
var (
	ErrNotRepository = errors.New("not inside a git repository")
	ErrBadBaseRef    = errors.New("base ref cannot be resolved")
	ErrNoChanges     = errors.New("no changed files")
)

// ChangedFile is one entry discovered in the raw diff.
type ChangedFile struct {
	Path         string
	OldPath      string
	Status       model.SnapshotStatus
	AddedLines   int
	DeletedLines int
}

// Source resolves snapshots for one scope root and optional base ref.
type Source struct {
	RepoDir string
	BaseRef string
}

// RepoRoot locates the repository containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := git(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return strings.TrimSpace(out), nil
}

// New builds a Source rooted at the repository containing dir.
func New(dir, baseRef string) (*Source, error) {
	root, err := RepoRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Source{RepoDir: root, BaseRef: baseRef}, nil
}

// Snapshots returns the full before/after content of every changed file.
// With no base ref the comparison is working tree vs HEAD; with one it is
// merge-base(base, HEAD) vs HEAD.
func (s *Source) Snapshots() ([]model.Snapshot, error) {
	beforeRef := "HEAD"
	afterRef := "" // empty means working tree

	if s.BaseRef != "" {
		mb, err := git(s.RepoDir, "merge-base", s.BaseRef, "HEAD")
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadBaseRef, s.BaseRef)
		}
		beforeRef = strings.TrimSpace(mb)
		afterRef = "HEAD"
	}

	var raw string
	var err error
	if afterRef == "" {
		raw, err = git(s.RepoDir, "diff", beforeRef)
	} else {
		raw, err = git(s.RepoDir, "diff", beforeRef, afterRef)
	}
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}

	changed, err := ChangedFiles(raw)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, ErrNoChanges
	}

	snaps := make([]model.Snapshot, 0, len(changed))
	for _, cf := range changed {
		snap := model.Snapshot{Path: cf.Path, Status: cf.Status}

		if cf.Status != model.SnapshotAdded {
			oldPath := cf.OldPath
			if oldPath == "" {
				oldPath = cf.Path
			}
			snap.Before = s.contentAt(beforeRef, oldPath)
		}
		if cf.Status != model.SnapshotDeleted {
			if afterRef == "" {
				snap.After = s.workingTreeContent(cf.Path)
			} else {
				snap.After = s.contentAt(afterRef, cf.Path)
			}
		}

		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// ChangedFiles parses raw unified diff output into changed-file entries.
// Renames are reported as modifications of the new path.
func ChangedFiles(raw string) ([]ChangedFile, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	var out []ChangedFile
	for _, f := range parsed {
		cf := ChangedFile{Path: f.NewName, OldPath: f.OldName}
		switch {
		case f.IsNew:
			cf.Status = model.SnapshotAdded
		case f.IsDelete:
			cf.Status = model.SnapshotDeleted
			cf.Path = f.OldName
		default:
			cf.Status = model.SnapshotModified
		}

		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					cf.AddedLines++
				case gitdiff.OpDelete:
					cf.DeletedLines++
				}
			}
		}

		out = append(out, cf)
	}
	return out, nil
}

// Stats aggregates changed-file counters for non-interactive summaries.
func Stats(files []ChangedFile) (n, added, deleted int) {
	n = len(files)
	for _, f := range files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// contentAt reads a file's content at a ref; missing paths come back empty.
func (s *Source) contentAt(ref, path string) string {
	out, err := git(s.RepoDir, "show", ref+":"+path)
	if err != nil {
		return ""
	}
	return out
}

func (s *Source) workingTreeContent(path string) string {
	data, err := os.ReadFile(filepath.Join(s.RepoDir, path))
	if err != nil {
		return ""
	}
	return string(data)
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
