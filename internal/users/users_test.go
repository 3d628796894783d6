package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
	"github.com/railbook/engine/internal/users"
)

func testOpts() storage.Options {
	return storage.Options{Order: 4, LeafSize: 4, IndexCacheCap: 4, LeafCacheCap: 4}
}

func TestFirstUserIsForcedRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := users.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	require.True(t, store.IsEmpty())
	require.NoError(t, store.Add("", model.User{Username: "root", Password: "p", Privilege: model.PrivilegeTraveller}))
	require.False(t, store.IsEmpty())

	require.NoError(t, store.Login("root", "p"))
	profile, err := store.QueryProfile("root", "root")
	require.NoError(t, err)
	require.Equal(t, model.PrivilegeRoot, profile.Privilege)
}

func TestAddRequiresHigherPrivilege(t *testing.T) {
	dir := t.TempDir()
	store, err := users.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add("", model.User{Username: "root", Password: "p", Privilege: model.PrivilegeRoot}))
	require.NoError(t, store.Login("root", "p"))

	require.NoError(t, store.Add("root", model.User{Username: "alice", Password: "p", Privilege: model.PrivilegeTraveller}))

	require.NoError(t, store.Login("alice", "p"))
	err = store.Add("alice", model.User{Username: "bob", Password: "p", Privilege: model.PrivilegeTraveller})
	require.ErrorIs(t, err, users.ErrPrivilege)
}

func TestLoginLogout(t *testing.T) {
	dir := t.TempDir()
	store, err := users.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add("", model.User{Username: "root", Password: "p", Privilege: model.PrivilegeRoot}))

	require.ErrorIs(t, store.Login("root", "wrong"), users.ErrWrongPassword)
	require.NoError(t, store.Login("root", "p"))
	require.True(t, store.IsLoggedIn("root"))
	require.ErrorIs(t, store.Login("root", "p"), users.ErrUserExists)

	require.NoError(t, store.Logout("root"))
	require.False(t, store.IsLoggedIn("root"))
	require.ErrorIs(t, store.Logout("root"), users.ErrNotLoggedIn)
}

func TestModifyProfileUpdatesStoredProfile(t *testing.T) {
	dir := t.TempDir()
	store, err := users.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add("", model.User{Username: "root", Password: "p", Privilege: model.PrivilegeRoot}))
	require.NoError(t, store.Login("root", "p"))

	newName := "Root Renamed"
	profile, err := store.ModifyProfile("root", "root", users.ProfileUpdate{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, newName, profile.Name)

	profile, err = store.QueryProfile("root", "root")
	require.NoError(t, err)
	require.Equal(t, newName, profile.Name)
}
