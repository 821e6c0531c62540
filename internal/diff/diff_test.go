package diff

import (
	"errors"
	"testing"

	"github.com/sprite-ai/revloop/internal/model"
)

const sampleDiff = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,11 @@
+package main
+
+import "fmt"
+
+func main() {
+	fmt.Println("hello")
+}
+
+func add(a, b int) int {
+	return a + b
+}
diff --git a/readme.md b/readme.md
index abc1234..def5678 100644
--- a/readme.md
+++ b/readme.md
@@ -1,3 +1,4 @@
 # Project

-Old description
+New description
+Added line
diff --git a/legacy.txt b/legacy.txt
deleted file mode 100644
index abc1234..0000000
--- a/legacy.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-stale
-content
`

func TestChangedFiles(t *testing.T) {
	files, err := ChangedFiles(sampleDiff)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	f0 := files[0]
	if f0.Status != model.SnapshotAdded {
		t.Errorf("expected hello.go to be added, got %s", f0.Status)
	}
	if f0.Path != "hello.go" {
		t.Errorf("expected path 'hello.go', got %q", f0.Path)
	}
	if f0.AddedLines != 11 {
		t.Errorf("expected 11 added lines, got %d", f0.AddedLines)
	}

	f1 := files[1]
	if f1.Status != model.SnapshotModified {
		t.Errorf("expected readme.md to be modified, got %s", f1.Status)
	}
	if f1.AddedLines != 2 || f1.DeletedLines != 1 {
		t.Errorf("readme.md counters: +%d -%d", f1.AddedLines, f1.DeletedLines)
	}

	f2 := files[2]
	if f2.Status != model.SnapshotDeleted {
		t.Errorf("expected legacy.txt to be deleted, got %s", f2.Status)
	}
	if f2.Path != "legacy.txt" {
		t.Errorf("deleted file path = %q", f2.Path)
	}

	n, added, deleted := Stats(files)
	if n != 3 || added != 13 || deleted != 3 {
		t.Errorf("stats: %d files +%d -%d", n, added, deleted)
	}
}

func TestChangedFilesEmpty(t *testing.T) {
	files, err := ChangedFiles("")
	if err != nil {
		t.Fatalf("ChangedFiles empty failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected 0 files, got %d", len(files))
	}
}

func TestRepoRootOutsideRepo(t *testing.T) {
	_, err := RepoRoot(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("expected ErrNotRepository, got %v", err)
	}
}
