package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"quietwire/internal/domain"
)

func requireMode(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, want, fi.Mode().Perm())
}

func TestSealOpenBlob_RoundTrip(t *testing.T) {
	ct, err := sealBlob("correct horse", []byte(`{"hello":"world"}`))
	require.NoError(t, err)

	pt, err := openBlob("correct horse", ct)
	require.NoError(t, err)
	require.JSONEq(t, `{"hello":"world"}`, string(pt))
}

func TestOpenBlob_WrongPassphrase(t *testing.T) {
	ct, err := sealBlob("right", []byte("secret"))
	require.NoError(t, err)

	_, err = openBlob("wrong", ct)
	require.ErrorIs(t, err, errWrongPassphrase)
}

func TestSealBlob_FreshSaltPerSeal(t *testing.T) {
	a, err := sealBlob("pass", []byte("same"))
	require.NoError(t, err)
	b, err := sealBlob("pass", []byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, a, b, "two seals of the same plaintext must differ")
}

func TestKeyStoreFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewKeyStoreFileStore(dir)

	_, ok, err := s.LoadKeyStore("pw")
	require.NoError(t, err)
	require.False(t, ok, "missing file must not be an error")

	st := domain.KeyStoreState{
		Identity: &domain.Identity{},
		SignedPreKey: &domain.SignedPreKeyPair{
			ID:        "spk-1",
			Signature: []byte{1, 2, 3},
		},
	}
	st.Identity.XPub[0] = 7
	st.SignedPreKey.Pub[0] = 9

	require.NoError(t, s.SaveKeyStore("pw", st))

	got, ok, err := s.LoadKeyStore("pw")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, st.Identity.XPub, got.Identity.XPub)
	require.Equal(t, "spk-1", got.SignedPreKey.ID)
	require.Equal(t, st.SignedPreKey.Pub, got.SignedPreKey.Pub)

	_, _, err = s.LoadKeyStore("other")
	require.ErrorIs(t, err, errWrongPassphrase)
}

func TestKeyStoreFileStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	s := NewKeyStoreFileStore(dir)
	require.NoError(t, s.SaveKeyStore("pw", domain.KeyStoreState{}))

	requireMode(t, filepath.Join(dir, keystoreFilename), 0o600)
}

func TestIssuedPreKeyFileStore_ConsumeOnce(t *testing.T) {
	dir := t.TempDir()
	s := NewIssuedPreKeyFileStore(dir)

	var pub domain.X25519Public
	var priv domain.X25519Private
	pub[0], priv[0] = 1, 2

	require.NoError(t, s.SaveIssued(pub, priv))

	got, ok, err := s.ConsumeIssued(pub)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	_, ok, err = s.ConsumeIssued(pub)
	require.NoError(t, err)
	require.False(t, ok, "a consumed secret must not be served twice")
}

func TestIssuedPreKeyFileStore_UnknownKey(t *testing.T) {
	s := NewIssuedPreKeyFileStore(t.TempDir())

	var pub domain.X25519Public
	pub[0] = 0xee
	_, ok, err := s.ConsumeIssued(pub)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConversationFileStore_SaveLoadDelete(t *testing.T) {
	s := NewConversationFileStore(t.TempDir())

	_, ok, err := s.LoadConversation("bob")
	require.NoError(t, err)
	require.False(t, ok)

	conv := domain.Conversation{Peer: "bob"}
	conv.State.RootKey = []byte{1, 2, 3}
	conv.State.SendCount = 4
	require.NoError(t, s.SaveConversation("bob", conv))

	got, ok, err := s.LoadConversation("bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got.State.RootKey)
	require.Equal(t, uint32(4), got.State.SendCount)

	// Conversations are keyed per peer.
	_, ok, err = s.LoadConversation("carol")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.DeleteConversation("bob"))
	_, ok, err = s.LoadConversation("bob")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting an absent peer is a no-op.
	require.NoError(t, s.DeleteConversation("bob"))
}
