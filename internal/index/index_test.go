package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xonecas/classmap/internal/reduce"
	"github.com/xonecas/classmap/internal/summarize"
)

const userSrc = `<?php
class User implements JsonSerializable {
    public int $id;
    public function jsonSerialize(): array { return []; }
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "User.php"), userSrc)
	writeFile(t, filepath.Join(root, "src", "util.php"), "<?php function helper() {}\n")
	writeFile(t, filepath.Join(root, "README.md"), "docs\n")

	idx := New(summarize.New(summarize.Options{}), root, reduce.All)
	if err := idx.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	files := idx.Files()
	if len(files) != 2 {
		t.Fatalf("Files = %v, want 2 entries", files)
	}

	res, ok := idx.Get(filepath.Join(root, "src", "User.php"))
	if !ok || res.Summary == nil || res.Summary.Name != "User" {
		t.Errorf("Get User.php = %+v, %v", res, ok)
	}
	res, ok = idx.Get(filepath.Join(root, "src", "util.php"))
	if !ok || res.Summary != nil || res.Err != "" {
		t.Errorf("util.php should index as declaration-free, got %+v", res)
	}
}

func TestUpdateFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Widget.php")
	writeFile(t, path, "<?php class Widget {}\n")

	idx := New(summarize.New(summarize.Options{}), root, reduce.All)
	ctx := context.Background()

	idx.UpdateFile(ctx, path)
	if res, ok := idx.Get(path); !ok || res.Summary == nil || res.Summary.Name != "Widget" {
		t.Fatalf("after add: %+v, %v", res, ok)
	}

	writeFile(t, path, "<?php class Gadget { public $x; }\n")
	idx.UpdateFile(ctx, path)
	res, _ := idx.Get(path)
	if res.Summary == nil || res.Summary.Name != "Gadget" || len(res.Summary.Properties) != 1 {
		t.Errorf("after rewrite: %+v", res)
	}

	// Deletion drops the entry.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	idx.UpdateFile(ctx, path)
	if _, ok := idx.Get(path); ok {
		t.Error("deleted file still indexed")
	}
}

func TestUpdateFileIgnoresUnsupported(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "not php")

	idx := New(summarize.New(summarize.Options{}), root, reduce.All)
	idx.UpdateFile(context.Background(), path)
	if _, ok := idx.Get(path); ok {
		t.Error("unsupported file was indexed")
	}
}

func TestDropUnder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "A.php"), "<?php class A {}\n")
	writeFile(t, filepath.Join(root, "src", "nested", "B.php"), "<?php class B {}\n")
	writeFile(t, filepath.Join(root, "lib", "C.php"), "<?php class C {}\n")

	idx := New(summarize.New(summarize.Options{}), root, reduce.All)
	if err := idx.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	idx.DropUnder(filepath.Join(root, "src"))

	if _, ok := idx.Get(filepath.Join(root, "src", "A.php")); ok {
		t.Error("direct child of dropped directory still indexed")
	}
	if _, ok := idx.Get(filepath.Join(root, "src", "nested", "B.php")); ok {
		t.Error("nested child of dropped directory still indexed")
	}
	if _, ok := idx.Get(filepath.Join(root, "lib", "C.php")); !ok {
		t.Error("sibling directory was evicted")
	}

	// A plain file path matches no entries by prefix; nothing else drops.
	idx.DropUnder(filepath.Join(root, "lib", "C.php"))
	if _, ok := idx.Get(filepath.Join(root, "lib", "C.php")); !ok {
		t.Error("DropUnder on a file path evicted the file itself")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "A.php")
	writeFile(t, path, "<?php class A {}\n")

	idx := New(summarize.New(summarize.Options{}), root, reduce.All)
	idx.UpdateFile(context.Background(), path)

	snap := idx.Snapshot()
	delete(snap, path)
	if _, ok := idx.Get(path); !ok {
		t.Error("mutating snapshot leaked into index")
	}
}
