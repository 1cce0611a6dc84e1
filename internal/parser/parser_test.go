package parser

import (
	"reflect"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain title", "Plain title"},
		{"# Heading", "Heading"},
		{"Hello #world", "Hello world"},
		{"###", DefaultTitle},
		{"   ", DefaultTitle},
		{"", DefaultTitle},
	}
	for _, c := range cases {
		if got := SanitizeTitle(c.in); got != c.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := DeriveTitle("", "Hello #world\nBody"); got != "Hello world" {
		t.Errorf("derived title = %q, want %q", got, "Hello world")
	}
	if got := DeriveTitle("Explicit", "ignored content"); got != "Explicit" {
		t.Errorf("explicit title = %q, want %q", got, "Explicit")
	}
	if got := DeriveTitle("", ""); got != DefaultTitle {
		t.Errorf("empty everything = %q, want placeholder", got)
	}
}

func TestTags(t *testing.T) {
	got := Tags("text #foo more #bar and #foo again")
	want := []string{"bar", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
	if got := Tags("no tags here"); len(got) != 0 {
		t.Errorf("Tags on plain text = %v, want none", got)
	}
}

func TestHasTag(t *testing.T) {
	if !HasTag("text #foo end", "foo") {
		t.Error("expected #foo to match")
	}
	if HasTag("text #foobar end", "foo") {
		t.Error("#foobar must not match tag foo")
	}
	if HasTag("text foo end", "foo") {
		t.Error("bare word must not match")
	}
}

func TestRemoveTag(t *testing.T) {
	cases := []struct {
		content, tag, want string
	}{
		{"text #foo #bar", "foo", "text #bar"},
		{"#foo leading", "foo", "leading"},
		{"keep #foobar intact #foo", "foo", "keep #foobar intact"},
		{"line one #foo\nline two", "foo", "line one\nline two"},
	}
	for _, c := range cases {
		if got := RemoveTag(c.content, c.tag); got != c.want {
			t.Errorf("RemoveTag(%q, %q) = %q, want %q", c.content, c.tag, got, c.want)
		}
	}
}
