package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if usr.Username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username || usr.Email == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matchSearch := func(usr user.User) bool {
		if filter.Search == "" {
			return true
		}
		s := strings.ToLower(filter.Search)
		return strings.Contains(strings.ToLower(usr.Name), s) ||
			strings.Contains(strings.ToLower(usr.Username), s) ||
			strings.Contains(strings.ToLower(usr.Email), s)
	}
	matchRoles := func(usr user.User) bool {
		if filter.Roles == nil {
			return true
		}
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				return true
			}
		}
		return false
	}
	matchActive := func(usr user.User) bool {
		if filter.IsActive == nil {
			return true
		}
		return usr.IsActive != nil && *usr.IsActive == *filter.IsActive
	}
	matchCreated := func(usr user.User) bool {
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			return false
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			return false
		}
		return true
	}

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if matchSearch(usr) && matchRoles(usr) && matchActive(usr) && matchCreated(usr) {
			users = append(users, usr)
		}
	}
	applyOrderings(users, orderings)
	return users, nil
}

// applyOrderings sorts in place; the last ordering is applied first so the
// first one ends up as the primary sort key.
func applyOrderings(users []user.User, orderings []core.DBOrdering) {
	for i := len(orderings) - 1; i >= 0; i-- {
		ord := orderings[i]
		sort.SliceStable(users, func(a, b int) bool {
			var less bool
			switch ord.Field {
			case "name":
				less = users[a].Name < users[b].Name
			case "username":
				less = users[a].Username < users[b].Username
			case "email":
				less = users[a].Email < users[b].Email
			case "created_at":
				less = users[a].CreatedAt.Before(users[b].CreatedAt)
			default:
				return false
			}
			if !ord.Ascending {
				return !less && !equalField(users[a], users[b], ord.Field)
			}
			return less
		})
	}
}

func equalField(a, b user.User, field string) bool {
	switch field {
	case "name":
		return a.Name == b.Name
	case "username":
		return a.Username == b.Username
	case "email":
		return a.Email == b.Email
	case "created_at":
		return a.CreatedAt.Equal(b.CreatedAt)
	}
	return true
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	return *orig, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
