package util

import (
	"net/url"
	"testing"
)

func TestJoinURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8090", "http://localhost:8090/api/v1/mappingAdministration/"},
		{"http://localhost:8090/", "http://localhost:8090/api/v1/mappingAdministration/"},
		{"https://h/mapping", "https://h/mapping/api/v1/mappingAdministration/"},
		{"https://h/mapping/", "https://h/mapping/api/v1/mappingAdministration/"},
	}
	for _, c := range cases {
		b, _ := url.Parse(c.base)
		got := JoinURL(b, "api/v1/mappingAdministration/").String()
		if got != c.want {
			t.Fatalf("JoinURL(%q)=%q want %q", c.base, got, c.want)
		}
		if b.String() != c.base {
			t.Fatalf("base mutated: %s", b)
		}
	}
}

func TestJoinURLEscaped(t *testing.T) {
	b, _ := url.Parse("http://localhost:8090/")
	got := JoinURLEscaped(b, "api/v1/mappingExecution", "a/b c").String()
	want := "http://localhost:8090/api/v1/mappingExecution/a%2Fb%20c"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	got = JoinURLEscaped(b, "api/v1/mappingExecution", "m1").String()
	if got != "http://localhost:8090/api/v1/mappingExecution/m1" {
		t.Fatalf("got %q", got)
	}
}
