package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) toUser() user.User {
	isActive := row.IsActive
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     &isActive,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	q := `SELECT id, username, email FROM users WHERE (username = $1 AND username <> '') OR (email = $2 AND email <> '')`
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, username, email); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, row := range rows {
		excluded := false
		for _, id := range exclIDs {
			if row.ID == id {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		if row.Username != "" && row.Username == username {
			return user.ErrUsernameExists
		}
		if row.Email != "" && row.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	isActive := true
	if usr.IsActive != nil {
		isActive = *usr.IsActive
	}

	q := `
		INSERT INTO users (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Username, usr.Email, isActive,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) getUser(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE username = $1 AND username <> ''`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE email = $1 AND email <> ''`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE (username = $1 AND username <> '') OR (email = $1 AND email <> '')`, username)
}

// orderableColumns whitelists user-supplied ordering fields.
var orderableColumns = map[string]struct{}{
	"name":       {},
	"username":   {},
	"email":      {},
	"created_at": {},
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM users`
	clauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, "(LOWER(name) LIKE $"+n+" OR LOWER(username) LIKE $"+n+" OR LOWER(email) LIKE $"+n+")")
	}
	if filter.Roles != nil {
		prefixes := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, role+"%")
		}
		args = append(args, pq.StringArray(prefixes))
		clauses = append(clauses, "EXISTS (SELECT 1 FROM unnest(roles) r, unnest($"+strconv.Itoa(len(args))+"::text[]) p WHERE r LIKE p)")
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, "is_active = $"+strconv.Itoa(len(args)))
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom)
		clauses = append(clauses, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo)
		clauses = append(clauses, "created_at <= $"+strconv.Itoa(len(args)))
	}

	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}

	orderBy := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		if _, ok := orderableColumns[ord.Field]; ok {
			orderBy = append(orderBy, ord.String())
		}
	}
	orderBy = append(orderBy, "created_at ASC")
	q += " ORDER BY " + strings.Join(orderBy, ", ")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
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

	var lastLogin null.Time
	if !orig.LastLogin.IsZero() {
		lastLogin = null.TimeFrom(orig.LastLogin)
	}

	q := `
		UPDATE users
		SET name = $2, username = $3, email = $4, is_active = $5, roles = $6,
		    password_hash = $7, updated_at = $8, last_login = $9
		WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, q,
		orig.ID, orig.Name, orig.Username, orig.Email, *orig.IsActive,
		pq.StringArray(orig.Roles), orig.PasswordHash, orig.UpdatedAt, lastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q := `DELETE FROM users WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, q, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
