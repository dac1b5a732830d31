package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/citecheck/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Theus v. State, 845 S.W.2d 874 (Tex. Crim. App. 1992).txt", "THEUS v. STATE\nCourt of Criminal Appeals of Texas")
	writeFile(t, dir, "Gonzales v. State.txt", "GONZALES v. STATE\n270 S.W.3d 282")
	writeFile(t, dir, "Wood v. Clemons.html", "<html><head><title>x</title><script>var a=1;</script></head><body><p>WOOD v. CLEMONS</p><p>89 F.3d 922</p></body></html>")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, ".hidden.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "rtf"), 0755); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir, 0, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", c.Len())
	}

	// Documents come back in identifier order
	ids := []string{c.Docs()[0].ID, c.Docs()[1].ID, c.Docs()[2].ID}
	expected := []string{
		"Gonzales v. State",
		"Theus v. State, 845 S.W.2d 874 (Tex. Crim. App. 1992)",
		"Wood v. Clemons",
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Errorf("expected id %q at %d, got %q", expected[i], i, ids[i])
		}
	}

	wood, ok := c.Get("Wood v. Clemons")
	if !ok {
		t.Fatal("expected Wood v. Clemons to be loaded")
	}
	if strings.Contains(wood.Text, "var a") {
		t.Errorf("script content leaked into text: %q", wood.Text)
	}
	if !strings.Contains(wood.Text, "89 F.3d 922") {
		t.Errorf("expected citation in HTML text, got %q", wood.Text)
	}
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), 0, nil)
	if !errors.Is(err, ErrNoCorpus) {
		t.Errorf("expected ErrNoCorpus, got %v", err)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "nothing useful")

	_, err := Load(dir, 0, nil)
	if !errors.Is(err, ErrNoCorpus) {
		t.Errorf("expected ErrNoCorpus, got %v", err)
	}
}

func TestLoad_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Bad v. Bytes.txt", "BAD \xff\xfe v. BYTES")

	c, err := Load(dir, 0, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d, _ := c.Get("Bad v. Bytes")
	if !strings.Contains(d.Text, "�") {
		t.Errorf("expected replacement character, got %q", d.Text)
	}
}

func TestIdentifierFromFileName(t *testing.T) {
	got := IdentifierFromFileName("Theus v. State, 845 S.W.2d 874 (Tex. Crim. App. 1992).txt")
	if got != "Theus v. State, 845 S.W.2d 874 (Tex. Crim. App. 1992)" {
		t.Errorf("unexpected identifier %q", got)
	}
}

func TestHeader(t *testing.T) {
	doc := model.NewAuthorityDocument("x", "x.txt", strings.Repeat("é", 10), 5)
	// 5 bytes cuts the third two-byte rune in half, so only two runes survive
	if doc.Header() != "éé" {
		t.Errorf("expected header cut on a rune boundary, got %q", doc.Header())
	}

	short := model.NewAuthorityDocument("y", "y.txt", "short", 100)
	if short.Header() != "short" {
		t.Errorf("expected full text as header, got %q", short.Header())
	}
}
