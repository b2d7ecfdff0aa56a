package summarize

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xonecas/classmap/internal/cache"
	"github.com/xonecas/classmap/internal/reduce"
)

const orderSrc = `<?php

class Order implements ArrayAccess
{
    public $id;
    private $items;

    public function total(): float
    {
        return 0.0;
    }

    private function recalc(): void
    {
    }
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "Order.php", orderSrc)

	svc := New(Options{})
	res, err := svc.File(context.Background(), path, reduce.All)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if res.Err != "" {
		t.Fatalf("unexpected file error: %s", res.Err)
	}
	if res.Summary == nil || res.Summary.Name != "Order" {
		t.Fatalf("summary = %+v, want class Order", res.Summary)
	}
	if len(res.Summary.Interfaces) != 1 || res.Summary.Interfaces[0] != "ArrayAccess" {
		t.Errorf("interfaces = %v, want [ArrayAccess]", res.Summary.Interfaces)
	}
}

func TestFile_PathValidation(t *testing.T) {
	tmpDir := t.TempDir()
	svc := New(Options{})

	if _, err := svc.File(context.Background(), filepath.Join(tmpDir, "nope.php"), reduce.All); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := svc.File(context.Background(), tmpDir, reduce.All); err == nil {
		t.Error("expected error for directory path")
	}
}

func TestFile_NoDeclarationIsNull(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "helpers.php", "<?php function f() {}\n")

	svc := New(Options{})
	res, err := svc.File(context.Background(), path, reduce.All)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if res.Summary != nil || res.Err != "" {
		t.Errorf("result = %+v, want null", res)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "null" {
		t.Errorf("marshaled = %s, want null", raw)
	}
}

func TestDir(t *testing.T) {
	tmpDir := t.TempDir()
	orderPath := writeFile(t, tmpDir, "src/Order.php", orderSrc)
	plainPath := writeFile(t, tmpDir, "src/helpers.php", "<?php function f() {}\n")
	writeFile(t, tmpDir, "README.md", "docs")

	svc := New(Options{Workers: 2})
	report, err := svc.Dir(context.Background(), tmpDir, reduce.PublicOnly)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("report has %d entries, want 2: %v", len(report), report)
	}

	order, ok := report[orderPath]
	if !ok || order.Summary == nil {
		t.Fatalf("missing summary for %s", orderPath)
	}
	// PublicOnly: private members filtered out.
	if len(order.Summary.Properties) != 1 || order.Summary.Properties[0].Name != "id" {
		t.Errorf("properties = %v, want only id", order.Summary.Properties)
	}
	if len(order.Summary.Methods) != 1 || order.Summary.Methods[0].Name != "total" {
		t.Errorf("methods = %v, want only total", order.Summary.Methods)
	}

	if plain, ok := report[plainPath]; !ok || plain.Summary != nil || plain.Err != "" {
		t.Errorf("helpers.php result = %+v, want null entry", plain)
	}
}

func TestDir_RootValidation(t *testing.T) {
	tmpDir := t.TempDir()
	file := writeFile(t, tmpDir, "a.php", "<?php")

	svc := New(Options{})
	if _, err := svc.Dir(context.Background(), file, reduce.All); err == nil {
		t.Error("expected error for file root")
	}
	if _, err := svc.Dir(context.Background(), filepath.Join(tmpDir, "missing"), reduce.All); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestDir_UsesCache(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "Order.php", orderSrc)

	c, err := cache.Open(filepath.Join(tmpDir, "cache.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	svc := New(Options{Cache: c, Workers: 1})
	first, err := svc.Dir(context.Background(), tmpDir, reduce.All)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Dir(context.Background(), tmpDir, reduce.All)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("cached run differs:\n%s\n%s", a, b)
	}
}

func TestFileResultJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   FileResult
		want string
	}{
		{"null", FileResult{}, "null"},
		{"error", FileResult{Err: "parse php: boom"}, `{"error":"parse php: boom"}`},
		{
			"summary",
			FileResult{Summary: &reduce.Summary{
				Name:       "A",
				Interfaces: []string{},
				Properties: []reduce.PropertyEntry{},
				Methods:    []reduce.MethodEntry{},
			}},
			`{"name":"A","interfaces":[],"properties":[],"methods":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(raw) != tt.want {
				t.Fatalf("marshaled = %s, want %s", raw, tt.want)
			}

			var back FileResult
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatal(err)
			}
			again, err := json.Marshal(back)
			if err != nil {
				t.Fatal(err)
			}
			if string(again) != tt.want {
				t.Errorf("round trip = %s, want %s", again, tt.want)
			}
		})
	}
}
