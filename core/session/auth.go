package session

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/schoolconnect/core"
)

var (
	// ErrInvalidCredentials is the only error a failed sign-in discloses.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	errEmailRequired    = errors.New("email is required")
	errPasswordRequired = errors.New("password is required")
)

type (
	// Account is a directory entry. An empty PasswordHash accepts any non-empty password.
	Account struct {
		User
		PasswordHash []byte
	}

	Directory interface {
		// Lookup returns the account registered under the normalized email or core.ErrNotFound.
		Lookup(ctx context.Context, email string) (Account, error)
	}
)

func (acc Account) CheckPassword(pwd string) error {
	if len(acc.PasswordHash) == 0 {
		return nil
	}
	return bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(pwd))
}

// HashPassword returns the bcrypt hash of pwd.
func HashPassword(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	return hash, errors.Wrap(err, "hashing password")
}

// Authenticator signs users in and out of a Store.
type Authenticator struct {
	dir   Directory
	store *Store
}

func NewAuthenticator(dir Directory, store *Store) *Authenticator {
	return &Authenticator{dir: dir, store: store}
}

// SignIn looks email up in the directory, checks the password and persists the matching user.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	var flds []core.FieldError
	if email == "" {
		flds = append(flds, core.FieldError{Field: "email", Error: errEmailRequired.Error()})
	}
	if password == "" {
		flds = append(flds, core.FieldError{Field: "password", Error: errPasswordRequired.Error()})
	}
	if flds != nil {
		return User{}, core.NewValidationError(errors.New("please enter both email and password"), flds...)
	}

	acc, err := a.dir.Lookup(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "looking up account")
	}
	if err = acc.CheckPassword(password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	if err = a.store.Set(ctx, acc.User); err != nil {
		return User{}, errors.Wrap(err, "storing session")
	}
	return acc.User, nil
}

func (a *Authenticator) SignOut(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// StaticDirectory is an in-memory, email-keyed Directory.
type StaticDirectory map[string]Account

var _ Directory = StaticDirectory(nil)

func (d StaticDirectory) Lookup(_ context.Context, email string) (Account, error) {
	if acc, ok := d[strings.ToLower(email)]; ok {
		return acc, nil
	}
	return Account{}, errors.Wrapf(core.ErrNotFound, "account %q", email)
}

// DemoDirectory returns the demo accounts. A non-empty passwordHash is required from all of them.
func DemoDirectory(passwordHash []byte) StaticDirectory {
	return StaticDirectory{
		"student@example.com": {
			User: User{
				ID:        "1",
				Name:      "Siddh Salgia",
				Email:     "siddhsalgia@example.com",
				Role:      RoleStudent,
				Avatar:    "https://images.pexels.com/photos/1462630/pexels-photo-1462630.jpeg?auto=compress&cs=tinysrgb&w=600",
				Class:     "4",
				Section:   "D",
				Grade:     "A",
				StudentID: "S-12559",
			},
			PasswordHash: passwordHash,
		},
		"teacher@example.com": {
			User: User{
				ID:        "2",
				Name:      "Mrs. Harshal Yamgar",
				Email:     "teacher@example.com",
				Role:      RoleTeacher,
				Avatar:    "https://images.pexels.com/photos/3783525/pexels-photo-3783525.jpeg?auto=compress&cs=tinysrgb&w=600",
				TeacherID: "T12345",
			},
			PasswordHash: passwordHash,
		},
		"admin@example.com": {
			User: User{
				ID:     "3",
				Name:   "Bhavna Pujari",
				Email:  "admin@example.com",
				Role:   RoleAdmin,
				Avatar: "https://images.pexels.com/photos/5212665/pexels-photo-5212665.jpeg?auto=compress&cs=tinysrgb&w=600",
			},
			PasswordHash: passwordHash,
		},
	}
}
