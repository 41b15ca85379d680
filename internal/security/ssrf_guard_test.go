package security

import (
	"strings"
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	g := NewSSRFGuard()

	urls := []string{
		"https://api.kick.com/public/v1/channels?slug=alice",
		"https://www.youtube.com/feeds/videos.xml?channel_id=UCxxxx",
		"http://example.com/feed",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_RejectsDisallowedScheme(t *testing.T) {
	g := NewSSRFGuard()

	for _, u := range []string{"ftp://example.com/x", "file:///etc/passwd", "javascript:alert(1)"} {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) はエラーを返すべき", u)
		}
	}
}

func TestValidateURL_RejectsPrivateIPs(t *testing.T) {
	g := NewSSRFGuard()

	cases := []string{
		"http://10.0.0.1/",
		"http://172.16.1.1/",
		"http://192.168.1.1/",
		"http://127.0.0.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
	}
	for _, u := range cases {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) はプライベートIPをブロックすべき", u)
		}
	}
}

func TestValidateURL_RejectsLocalhost(t *testing.T) {
	g := NewSSRFGuard()

	err := g.ValidateURL("http://localhost:8080/")
	if err == nil || !strings.Contains(err.Error(), "blocked host") {
		t.Errorf("localhostはブロックすべき, got %v", err)
	}
}

func TestValidateURL_RejectsEmpty(t *testing.T) {
	g := NewSSRFGuard()

	if err := g.ValidateURL(""); err == nil {
		t.Error("空URLはエラーを返すべき")
	}
}

func TestNewSafeClient_ReturnsClient(t *testing.T) {
	g := NewSSRFGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}
