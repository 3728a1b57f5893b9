// ABOUTME: Tests for the on-disk CRM token cache
// ABOUTME: Verifies file permissions, reuse across clients, and clearing on rejection
package crm

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()
	assert.True(t, strings.HasPrefix(path, filepath.Join(xdg.DataHome, "fieldforce")))
	assert.Equal(t, "crm-token.json", filepath.Base(path))
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := &TokenStore{Path: filepath.Join(t.TempDir(), "sub", "token.json")}

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)

	expiry := time.Now().Add(time.Hour).Round(time.Second)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: expiry}))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.True(t, expiry.Equal(tok.Expiry))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestClientReusesCachedToken(t *testing.T) {
	fake, srv := newFakeCRM(t)
	fake.queryHandler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalSize":0,"done":true,"records":[]}`))
	}
	cache := filepath.Join(t.TempDir(), "token.json")
	cfg := Config{InstanceURL: srv.URL, ClientID: "test-id", ClientSecret: "test-secret", HTTPClient: srv.Client(), TokenCachePath: cache}

	first, err := NewClient(cfg)
	require.NoError(t, err)
	_, err = first.ListLeads(context.Background(), "")
	require.NoError(t, err)

	second, err := NewClient(cfg)
	require.NoError(t, err)
	_, err = second.ListLeads(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "second client should use the cached token")
}
