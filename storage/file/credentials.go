package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/user"
)

type (
	credentialRecord struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		DOB      string `json:"dob"`
		Password string `json:"password"`
	}

	// Credentials is the whole credential file: email -> record.
	Credentials map[string]credentialRecord

	userRepository struct {
		path  string
		mutex sync.Mutex // serializes load-modify-save cycles within the process
	}
)

// NewUserRepository returns a user.Repository backed by the JSON credential file at path.
func NewUserRepository(path string) *userRepository {
	return &userRepository{path: path}
}

var _ user.Repository = (*userRepository)(nil)

// Load reads the full credential mapping; an empty mapping if the file does not exist.
func (repo *userRepository) Load() (Credentials, error) {
	data, err := os.ReadFile(repo.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Credentials), nil
		}
		return nil, errors.Wrap(err, "reading credentials")
	}
	creds := make(Credentials)
	if err = json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", repo.path)
	}
	return creds, nil
}

// Save overwrites the credential file with creds.
func (repo *userRepository) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err = os.MkdirAll(filepath.Dir(repo.path), 0755); err != nil {
		return errors.Wrap(err, "creating credentials dir")
	}
	return writeFileAtomic(repo.path, data, 0600)
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	creds, err := repo.Load()
	if err != nil {
		return user.User{}, err
	}
	if _, ok := creds.lookup(usr.Email); ok {
		return user.User{}, user.ErrDuplicateAccount
	}
	creds[usr.Email] = toRecord(usr)
	if err = repo.Save(creds); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	creds, err := repo.Load()
	if err != nil {
		return user.User{}, err
	}
	key, ok := creds.lookup(email)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return fromRecord(key, creds[key]), nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	creds, err := repo.Load()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(creds))
	for email, rec := range creds {
		users = append(users, fromRecord(email, rec))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	creds, err := repo.Load()
	if err != nil {
		return user.User{}, err
	}
	key, ok := creds.lookup(usr.Email)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Email = key
	creds[key] = toRecord(usr)
	if err = repo.Save(creds); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// lookup returns the key stored for email. Files written by older tools may hold
// mixed-case keys, so an exact match wins and a case-insensitive one is the fallback.
func (creds Credentials) lookup(email string) (string, bool) {
	if _, ok := creds[email]; ok {
		return email, true
	}
	keys := make([]string, 0, len(creds))
	for key := range creds {
		if strings.EqualFold(key, email) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

func toRecord(usr user.User) credentialRecord {
	return credentialRecord{
		Name:     usr.Name,
		Phone:    usr.Phone,
		DOB:      usr.DOBString(),
		Password: usr.Password,
	}
}

func fromRecord(email string, rec credentialRecord) user.User {
	// an unparsable date is kept as the zero date; it does not affect logins
	dob, _ := core.ParseDate(rec.DOB)
	return user.User{
		Email:    email,
		Name:     rec.Name,
		Phone:    rec.Phone,
		DOB:      dob,
		Password: rec.Password,
	}
}
