// Package users is the account directory: a primary index from username
// to profile, plus an in-memory set of who is currently logged in. Login
// state is intentionally not persisted — a fresh process starts with
// nobody logged in, matching the protocol's single-session-per-run model.
package users

import (
	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
)

var (
	// ErrUserExists is returned by Add when the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a username has no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword is returned by Login on a password mismatch.
	ErrWrongPassword = errors.New("incorrect password")
	// ErrNotLoggedIn is returned when an operation requires a session
	// that does not exist.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrPrivilege is returned when the caller's privilege is too low for
	// the action it asked to perform.
	ErrPrivilege = errors.New("insufficient privilege")
)

// Store is the account directory and its login-session tracker.
type Store struct {
	primary    *storage.BPTree[uint64, model.User]
	loggedIn   map[string]model.Privilege
}

// Open opens (or creates) the accounts B+ tree under dir.
func Open(dir string, opts storage.Options) (*Store, error) {
	u64Less := func(a, b uint64) bool { return a < b }
	primary, err := storage.Open(dir, "user", model.Uint64Codec(), model.UserCodec(), u64Less, func(a, b model.User) bool {
		return a.Username < b.Username
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open user index")
	}
	return &Store{primary: primary, loggedIn: make(map[string]model.Privilege)}, nil
}

func (s *Store) lookup(username string) (model.User, bool, error) {
	candidates, err := s.primary.Find(model.HashString(username))
	if err != nil {
		return model.User{}, false, err
	}
	for _, u := range candidates {
		if u.Username == username {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}

// IsEmpty reports whether no accounts have been registered yet — the
// trigger for the implicit first-user-is-root rule in Add.
func (s *Store) IsEmpty() bool {
	return s.primary.Empty()
}

// Add registers a new account. The very first account ever created is
// granted PrivilegeRoot regardless of what the caller requested (and
// requires no existing session); every subsequent add_user requires the
// acting user to be logged in with a privilege strictly greater than the
// one being granted.
func (s *Store) Add(actingUser string, newUser model.User) error {
	if _, ok, err := s.lookup(newUser.Username); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(ErrUserExists, "user %s", newUser.Username)
	}

	if s.IsEmpty() {
		newUser.Privilege = model.PrivilegeRoot
		return s.primary.Insert(model.HashString(newUser.Username), newUser)
	}

	actorPrivilege, ok := s.loggedIn[actingUser]
	if !ok {
		return errors.Wrapf(ErrNotLoggedIn, "user %s", actingUser)
	}
	if actorPrivilege <= newUser.Privilege {
		return errors.Wrapf(ErrPrivilege, "actor privilege %d granting %d", actorPrivilege, newUser.Privilege)
	}
	return s.primary.Insert(model.HashString(newUser.Username), newUser)
}

// Login validates credentials and, on success, opens a session.
func (s *Store) Login(username, password string) error {
	if _, alreadyIn := s.loggedIn[username]; alreadyIn {
		return errors.Wrapf(ErrUserExists, "user %s already logged in", username)
	}
	u, ok, err := s.lookup(username)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrUserNotFound, "user %s", username)
	}
	if u.Password != password {
		return errors.Wrapf(ErrWrongPassword, "user %s", username)
	}
	s.loggedIn[username] = u.Privilege
	return nil
}

// Logout closes username's session.
func (s *Store) Logout(username string) error {
	if _, ok := s.loggedIn[username]; !ok {
		return errors.Wrapf(ErrNotLoggedIn, "user %s", username)
	}
	delete(s.loggedIn, username)
	return nil
}

// IsLoggedIn reports whether username currently has a session.
func (s *Store) IsLoggedIn(username string) bool {
	_, ok := s.loggedIn[username]
	return ok
}

// QueryProfile returns target's profile as seen by actingUser, subject to
// the privilege rule: you may always query yourself; otherwise you need
// strictly higher privilege than target.
func (s *Store) QueryProfile(actingUser, target string) (model.Profile, error) {
	actorPrivilege, ok := s.loggedIn[actingUser]
	if !ok {
		return model.Profile{}, errors.Wrapf(ErrNotLoggedIn, "user %s", actingUser)
	}
	u, ok, err := s.lookup(target)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		return model.Profile{}, errors.Wrapf(ErrUserNotFound, "user %s", target)
	}
	if actingUser != target && actorPrivilege <= u.Privilege {
		return model.Profile{}, errors.Wrapf(ErrPrivilege, "actor privilege %d querying %d", actorPrivilege, u.Privilege)
	}
	return u.ToProfile(), nil
}

// ModifyProfile applies the given field updates (nil meaning "leave
// unchanged") to target's account, subject to the same privilege rule as
// QueryProfile, plus: a requested new privilege must be strictly lower
// than the acting user's own privilege.
type ProfileUpdate struct {
	Password  *string
	Name      *string
	Mail      *string
	Privilege *model.Privilege
}

func (s *Store) ModifyProfile(actingUser, target string, update ProfileUpdate) (model.Profile, error) {
	actorPrivilege, ok := s.loggedIn[actingUser]
	if !ok {
		return model.Profile{}, errors.Wrapf(ErrNotLoggedIn, "user %s", actingUser)
	}
	u, ok, err := s.lookup(target)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		return model.Profile{}, errors.Wrapf(ErrUserNotFound, "user %s", target)
	}
	if actingUser != target && actorPrivilege <= u.Privilege {
		return model.Profile{}, errors.Wrapf(ErrPrivilege, "actor privilege %d modifying %d", actorPrivilege, u.Privilege)
	}
	if update.Privilege != nil && *update.Privilege >= actorPrivilege {
		return model.Profile{}, errors.Wrapf(ErrPrivilege, "actor privilege %d cannot grant %d", actorPrivilege, *update.Privilege)
	}

	if err := s.primary.Remove(model.HashString(u.Username), u); err != nil {
		return model.Profile{}, err
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Mail != nil {
		u.Mail = *update.Mail
	}
	if update.Privilege != nil {
		u.Privilege = *update.Privilege
	}
	if err := s.primary.Insert(model.HashString(u.Username), u); err != nil {
		return model.Profile{}, err
	}
	if _, in := s.loggedIn[u.Username]; in {
		s.loggedIn[u.Username] = u.Privilege
	}
	return u.ToProfile(), nil
}

// Flush writes back every dirty cached page.
func (s *Store) Flush() error {
	return s.primary.Flush()
}

// Close flushes and closes the accounts index.
func (s *Store) Close() error {
	return s.primary.Close()
}

// Remove deletes the accounts index's backing files, and clears all
// sessions, used by `clean`.
func (s *Store) Remove() error {
	s.loggedIn = make(map[string]model.Privilege)
	return s.primary.Remove()
}
