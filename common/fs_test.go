package common

import (
	"path/filepath"
	"testing"
)

func TestResolveRelativePath(t *testing.T) {
	if got := ResolveRelativePath("", "/root"); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}

	abs := filepath.Join(string(filepath.Separator), "etc", "conf")
	if got := ResolveRelativePath(abs, "/root"); got != abs {
		t.Errorf("absolute path should stay unchanged, got %q", got)
	}

	want := filepath.Join("/root", "child")
	if got := ResolveRelativePath("child", "/root"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInvalidPathCharReplace(t *testing.T) {
	got := InvalidPathCharReplace(`a<b>c:d"e/f\g|h?i*j`)
	want := "a〈b〉c：d“e／f＼g｜h？i＊j"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStemOf(t *testing.T) {
	if got := StemOf("/tmp/slides.pdf"); got != "slides" {
		t.Errorf("got %q", got)
	}
	if got := StemOf("archive.tar.gz"); got != "archive.tar" {
		t.Errorf("got %q", got)
	}
}
