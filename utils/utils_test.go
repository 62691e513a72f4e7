package utils

import (
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/board/config"
)

func useConfig(t *testing.T, c config.AppConfig) {
	t.Helper()
	if c.JWTSecret == "" {
		c.JWTSecret = "utils-secret"
	}
	config.Use(c)
	ResetCache()
	t.Cleanup(ResetCache)
}

func TestTokenRoundTrip(t *testing.T) {
	useConfig(t, config.AppConfig{})

	token, err := GenerateToken(7, "a@example.com", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.ID)
	assert.Equal(t, "alice", claims.NickName)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	other, err := GenerateToken(7, "a@example.com", "alice", time.Hour)
	require.NoError(t, err)
	otherClaims, err := ParseToken(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.RegisteredClaims.ID, otherClaims.RegisteredClaims.ID, "every token has its own jti")
}

func TestParseTokenRejects(t *testing.T) {
	useConfig(t, config.AppConfig{})

	sign := func(c Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(Claims{ID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}, "other"),
		"expired":      sign(Claims{ID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}, "utils-secret"),
		"no user id":   sign(Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}, "utils-secret"),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token)
			assert.Error(t, err)
		})
	}
}

func TestBlacklist(t *testing.T) {
	useConfig(t, config.AppConfig{})

	BlacklistToken("jti-live", time.Now().Add(time.Hour))
	BlacklistToken("jti-expired", time.Now().Add(-time.Minute))

	assert.True(t, IsTokenBlacklisted("jti-live"))
	assert.False(t, IsTokenBlacklisted("jti-expired"))
	assert.False(t, IsTokenBlacklisted("jti-unknown"))
	assert.False(t, IsTokenBlacklisted(""))
}

func TestLocalCache(t *testing.T) {
	useConfig(t, config.AppConfig{CacheEnabled: true, CacheSize: 16})

	type tree struct {
		Names []string `json:"names"`
	}
	CacheSetJSON(CacheKeyCategoryTree, tree{Names: []string{"Docker"}}, 0)
	CacheSetBytes("board:other", []byte("x"), 0)

	var got tree
	require.True(t, CacheGetJSON(CacheKeyCategoryTree, &got))
	assert.Equal(t, []string{"Docker"}, got.Names)

	InvalidateByPrefix(CachePrefixCategory)
	assert.False(t, CacheGetJSON(CacheKeyCategoryTree, &got))
	_, ok := CacheGetBytes("board:other")
	assert.True(t, ok, "other prefixes survive")

	CacheSetBytes("board:short", []byte("y"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok = CacheGetBytes("board:short")
	assert.False(t, ok, "expired entries are dropped")
}

func TestCacheDisabled(t *testing.T) {
	useConfig(t, config.AppConfig{CacheEnabled: false})

	CacheSetBytes("board:k", []byte("v"), 0)
	_, ok := CacheGetBytes("board:k")
	assert.False(t, ok)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))

	p, err := RandomPassword(12)
	require.NoError(t, err)
	assert.Len(t, p, 12)
	for _, r := range p {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r))
	}
	short, err := RandomPassword(3)
	require.NoError(t, err)
	assert.Len(t, short, 8)
}

func TestSanitizeAndMarkdown(t *testing.T) {
	assert.Equal(t, "Hello", SanitizePlain("  <b>Hello</b> "))
	assert.Equal(t, `Tom & Jerry's "guide"`, SanitizePlain(`<em>Tom & Jerry's "guide"</em>`))
	assert.Equal(t, "a < b > c", SanitizePlain("a < b > c"))
	assert.Equal(t, "hi", SanitizePlain(`<p onclick="x()">hi</p><script>alert(1)</script>`))

	html := RenderMarkdown("# Title\n\n- [x] done\n\n<script>alert(1)</script>\n\n[link](https://example.com)")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Title")
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, `target="_blank"`)

	quoted := RenderMarkdown("> Q&A\n\n    x < y")
	assert.Contains(t, quoted, "<blockquote>")
	assert.Contains(t, quoted, "Q&amp;A")
	assert.Contains(t, quoted, "x &lt; y")
	assert.NotContains(t, quoted, "&amp;amp;")
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, Unique([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique([]string{}))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(config.AppConfig{SMTPFrom: "noreply@example.com"}, "u@example.com", "Temporary password", "body"))
	assert.Contains(t, msg, "From: Board <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: u@example.com\r\n")
	assert.Contains(t, msg, "Subject: Temporary password\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nbody"))
}

func TestSMTPMailerRequiresConfig(t *testing.T) {
	err := NewSMTPMailer(config.AppConfig{}).Send("u@example.com", "s", "b")
	assert.Error(t, err)
}

func TestServeReleasesSignalWatcherOnError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	srv := NewServer("", http.NotFoundHandler(), time.Second, time.Second)
	err = srv.Serve(ln)
	require.Error(t, err)
	assert.NotErrorIs(t, err, http.ErrServerClosed)

	select {
	case _, ok := <-srv.signals:
		assert.False(t, ok, "signal channel is closed")
	case <-time.After(time.Second):
		t.Fatal("signal watcher still waiting")
	}
}
