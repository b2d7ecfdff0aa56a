package parser

import (
	"context"
	"testing"

	"github.com/xonecas/classmap/internal/phpast"
	"github.com/xonecas/classmap/internal/reduce"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"index.php", true},
		{"View.PHTML", true},
		{"main.go", false},
		{"php", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParse_ClassSummary(t *testing.T) {
	src := []byte(`<?php

class UserService implements UserReaderInterface, UserWriterInterface
{
    public $cacheTtl, $maxRetries;
    protected string $table = 'users';
    private ?PDO $conn;

    public function find(int $id): ?User
    {
        return null;
    }

    public function search(string $term, int $limit): int|float
    {
        return 0;
    }

    protected function connection(): PDO
    {
        return $this->conn;
    }

    private function reset(): void
    {
    }

    public function legacy($a, $b, $c)
    {
    }
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := reduce.FindFirstDeclaration(root)
	if decl == nil {
		t.Fatal("no declaration found")
	}

	s := reduce.Summarize(decl, reduce.All)
	if s.Name != "UserService" {
		t.Errorf("name = %q, want UserService", s.Name)
	}
	wantIfaces := []string{"UserReaderInterface", "UserWriterInterface"}
	if len(s.Interfaces) != 2 || s.Interfaces[0] != wantIfaces[0] || s.Interfaces[1] != wantIfaces[1] {
		t.Errorf("interfaces = %v, want %v", s.Interfaces, wantIfaces)
	}

	wantProps := []reduce.PropertyEntry{
		{Name: "cacheTtl", Visibility: phpast.Public},
		{Name: "maxRetries", Visibility: phpast.Public},
		{Name: "table", Visibility: phpast.Protected},
		{Name: "conn", Visibility: phpast.Private},
	}
	if len(s.Properties) != len(wantProps) {
		t.Fatalf("properties = %v, want %v", s.Properties, wantProps)
	}
	for i, want := range wantProps {
		if s.Properties[i] != want {
			t.Errorf("properties[%d] = %v, want %v", i, s.Properties[i], want)
		}
	}

	wantMethods := []reduce.MethodEntry{
		{Name: "find", Visibility: phpast.Public, ParameterCount: 1, ReturnType: "?User"},
		{Name: "search", Visibility: phpast.Public, ParameterCount: 2, ReturnType: "int|float"},
		{Name: "connection", Visibility: phpast.Protected, ParameterCount: 0, ReturnType: "PDO"},
		{Name: "reset", Visibility: phpast.Private, ParameterCount: 0, ReturnType: "void"},
		{Name: "legacy", Visibility: phpast.Public, ParameterCount: 3, ReturnType: "untyped"},
	}
	if len(s.Methods) != len(wantMethods) {
		t.Fatalf("methods = %v, want %v", s.Methods, wantMethods)
	}
	for i, want := range wantMethods {
		if s.Methods[i] != want {
			t.Errorf("methods[%d] = %v, want %v", i, s.Methods[i], want)
		}
	}
}

func TestParse_PublicOnlyFiltersAbstract(t *testing.T) {
	src := []byte(`<?php

abstract class Job
{
    public $name;
    private $state;

    abstract public function run(): void;

    public function describe(): string
    {
        return $this->name;
    }

    private function secret(): void
    {
    }
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := reduce.Summarize(reduce.FindFirstDeclaration(root), reduce.PublicOnly)

	if len(s.Properties) != 1 || s.Properties[0].Name != "name" {
		t.Errorf("properties = %v, want only name", s.Properties)
	}
	// run is abstract and secret is private: only describe survives.
	if len(s.Methods) != 1 || s.Methods[0].Name != "describe" {
		t.Errorf("methods = %v, want only describe", s.Methods)
	}
}

func TestParse_InterfaceDeclaration(t *testing.T) {
	src := []byte(`<?php

interface Repository
{
    public function get(int $id): mixed;
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := reduce.Summarize(reduce.FindFirstDeclaration(root), reduce.All)
	if s.Name != "Repository" {
		t.Errorf("name = %q, want Repository", s.Name)
	}
	if len(s.Methods) != 1 || s.Methods[0].ReturnType != "mixed" {
		t.Errorf("methods = %v, want get(): mixed", s.Methods)
	}
}

func TestParse_FirstDeclarationWins(t *testing.T) {
	src := []byte(`<?php

class First {}
class Second {}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := reduce.Summarize(reduce.FindFirstDeclaration(root), reduce.All)
	if s.Name != "First" {
		t.Errorf("name = %q, want First (first declaration in pre-order)", s.Name)
	}
}

func TestParse_NoDeclaration(t *testing.T) {
	src := []byte(`<?php

function helper(): int
{
    return 42;
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if decl := reduce.FindFirstDeclaration(root); decl != nil {
		t.Errorf("expected no declaration, got %v", decl)
	}
}

func TestParse_ImplicitVisibilityIsPublic(t *testing.T) {
	src := []byte(`<?php

class Legacy
{
    var $old;

    function plain()
    {
    }
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := reduce.Summarize(reduce.FindFirstDeclaration(root), reduce.PublicOnly)
	if len(s.Properties) != 1 || s.Properties[0].Visibility != phpast.Public {
		t.Errorf("properties = %v, want public old", s.Properties)
	}
	if len(s.Methods) != 1 || s.Methods[0].Visibility != phpast.Public {
		t.Errorf("methods = %v, want public plain", s.Methods)
	}
}

func TestParse_IntersectionReturnType(t *testing.T) {
	src := []byte(`<?php

class Collector
{
    public function all(): Countable&Traversable
    {
        return $this->items;
    }
}
`)

	root, err := Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := reduce.Summarize(reduce.FindFirstDeclaration(root), reduce.All)
	if len(s.Methods) != 1 || s.Methods[0].ReturnType != "Countable&Traversable" {
		t.Errorf("methods = %v, want all(): Countable&Traversable", s.Methods)
	}
}
