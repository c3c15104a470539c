// Package sqlite provides a SQLite-backed domain repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/auticonnect/internal/storage/sqlitemigrate"
	"github.com/aretw0/auticonnect/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/auticonnect/pkg/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Repository implements ports.Repository on SQLite.
// Every multi-row operation runs in one IMMEDIATE transaction.
type Repository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Option configures the Repository.
type Option func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	// modernc.org/sqlite reads pragmas as _pragma=name(value), applied on every new connection.
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &Repository{db: db, now: time.Now, newID: domain.NewActivityID}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// inTx runs fn inside a transaction, committing on nil error.
func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateUser registers a new user.
func (r *Repository) CreateUser(ctx context.Context, id, name string, role domain.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateNewUser(id, name, role); err != nil {
		return err
	}
	u := domain.NewUser(id, name, role, r.now())

	var profile sql.NullString
	if u.Profile != nil {
		data, err := json.Marshal(u.Profile)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		profile = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, role, profile_json, created_at, last_active) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, string(u.Role), profile, toMillis(u.CreatedAt), toMillis(u.LastActive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", id, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateUserProfile merges update into the participant's profile.
func (r *Repository) UpdateUserProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			role    string
			profile sql.NullString
		)
		err := tx.QueryRowContext(ctx, `SELECT role, profile_json FROM users WHERE id = ?`, id).Scan(&role, &profile)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if domain.Role(role) != domain.RoleParticipant {
			return fmt.Errorf("%w: only participants have a profile", domain.ErrInvalidArgument)
		}

		var base domain.Profile
		if profile.Valid && profile.String != "" {
			if err := json.Unmarshal([]byte(profile.String), &base); err != nil {
				return fmt.Errorf("decode profile: %w", err)
			}
		}
		data, err := json.Marshal(base.Apply(update))
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET profile_json = ? WHERE id = ?`, string(data), id); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
}

// GetUser returns the user with its groups in join order.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	return getUser(ctx, r.db, id)
}

func getUser(ctx context.Context, q queryer, id string) (domain.User, error) {
	var (
		u                   domain.User
		role                string
		profile             sql.NullString
		created, lastActive int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, role, profile_json, created_at, last_active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &role, &profile, &created, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = domain.Role(role)
	u.CreatedAt = fromMillis(created)
	u.LastActive = fromMillis(lastActive)
	if profile.Valid {
		var p domain.Profile
		if err := json.Unmarshal([]byte(profile.String), &p); err != nil {
			return domain.User{}, fmt.Errorf("decode profile: %w", err)
		}
		u.Profile = &p
	}

	u.Groups, err = selectStrings(ctx, q, `SELECT group_id FROM memberships WHERE user_id = ? ORDER BY seq`, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user groups: %w", err)
	}
	return u, nil
}

func selectStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateGroup stores the group and makes the creator its first member.
func (r *Repository) CreateGroup(ctx context.Context, ng domain.NewGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ng.Validate(); err != nil {
		return err
	}
	g := ng.Build(r.now())

	return r.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, g.CreatedBy).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("creator %s: %w", g.CreatedBy, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load creator: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO support_groups (id, name, theme, description, created_by, max_members, mediation_enabled, created_at, last_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Theme, g.Description, g.CreatedBy, g.MaxMembers, g.MediationEnabled,
			toMillis(g.CreatedAt), toMillis(g.LastActive),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("group %s: %w", g.ID, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("create group: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			g.ID, g.CreatedBy, toMillis(g.CreatedAt),
		); err != nil {
			return fmt.Errorf("add creator: %w", err)
		}
		return nil
	})
}

const groupColumns = `id, name, theme, description, created_by, max_members, mediation_enabled, created_at, last_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (domain.Group, error) {
	var (
		g                   domain.Group
		created, lastActive int64
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Theme, &g.Description, &g.CreatedBy, &g.MaxMembers,
		&g.MediationEnabled, &created, &lastActive); err != nil {
		return domain.Group{}, err
	}
	g.CreatedAt = fromMillis(created)
	g.LastActive = fromMillis(lastActive)
	return g, nil
}

func members(ctx context.Context, q queryer, groupID string) ([]string, error) {
	return selectStrings(ctx, q, `SELECT user_id FROM memberships WHERE group_id = ? ORDER BY seq`, groupID)
}

// GetGroup returns the group with members in join order.
func (r *Repository) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	g, err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM support_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("get group: %w", err)
	}
	if g.Members, err = members(ctx, r.db, id); err != nil {
		return domain.Group{}, fmt.Errorf("get members: %w", err)
	}
	return g, nil
}

// ListGroups returns every group in creation order.
func (r *Repository) ListGroups(ctx context.Context) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM support_groups ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := []domain.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list groups: %w", err)
	}
	rows.Close()

	for i := range groups {
		if groups[i].Members, err = members(ctx, r.db, groups[i].ID); err != nil {
			return nil, fmt.Errorf("get members: %w", err)
		}
	}
	return groups, nil
}

// AddMember joins userID to groupID.
func (r *Repository) AddMember(ctx context.Context, userID, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var maxMembers int
		err := tx.QueryRowContext(ctx, `SELECT max_members FROM support_groups WHERE id = ?`, groupID).Scan(&maxMembers)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load group: %w", err)
		}

		var found int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		var count, already int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(user_id = ?), 0) FROM memberships WHERE group_id = ?`, userID, groupID,
		).Scan(&count, &already); err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if already > 0 {
			return nil
		}
		if count >= maxMembers {
			return fmt.Errorf("group %s: %w", groupID, domain.ErrGroupFull)
		}

		now := toMillis(r.now())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (group_id, user_id, joined_at) VALUES (?, ?, ?)`, groupID, userID, now,
		); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE support_groups SET last_active = ? WHERE id = ?`, now, groupID); err != nil {
			return fmt.Errorf("touch group: %w", err)
		}
		return nil
	})
}

// CreateActivity schedules an activity in an existing group.
func (r *Repository) CreateActivity(ctx context.Context, na domain.NewActivity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := na.Validate(); err != nil {
		return "", err
	}
	a := na.Build(r.newID(), r.now())
	participants, err := json.Marshal(a.Participants)
	if err != nil {
		return "", fmt.Errorf("marshal participants: %w", err)
	}

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		var found int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM support_groups WHERE id = ?`, a.GroupID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", a.GroupID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load group: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO activities (id, group_id, type, title, description, created_by, participants_json, status,
			 scheduled_at, duration_minutes, guidance_enabled, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.GroupID, string(a.Type), a.Title, a.Description, a.CreatedBy, string(participants), string(a.Status),
			toMillis(a.ScheduledAt), a.DurationMinutes, a.GuidanceEnabled, toMillis(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("create activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// ListActivitiesForUser returns scheduled activities of the user's groups in creation order.
func (r *Repository) ListActivitiesForUser(ctx context.Context, userID string) ([]domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.group_id, a.type, a.title, a.description, a.created_by, a.participants_json, a.status,
		        a.scheduled_at, a.duration_minutes, a.guidance_enabled, a.created_at
		   FROM activities a
		   JOIN memberships m ON m.group_id = a.group_id
		  WHERE m.user_id = ? AND a.status = ?
		  ORDER BY a.seq`,
		userID, string(domain.ActivityScheduled),
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []domain.Activity{}
	for rows.Next() {
		var (
			a                         domain.Activity
			typ, status, participants string
			scheduled, created        int64
		)
		if err := rows.Scan(&a.ID, &a.GroupID, &typ, &a.Title, &a.Description, &a.CreatedBy, &participants, &status,
			&scheduled, &a.DurationMinutes, &a.GuidanceEnabled, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = domain.ActivityType(typ)
		a.Status = domain.ActivityStatus(status)
		a.ScheduledAt = fromMillis(scheduled)
		a.CreatedAt = fromMillis(created)
		if err := json.Unmarshal([]byte(participants), &a.Participants); err != nil {
			return nil, fmt.Errorf("decode participants: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TouchUser refreshes LastActive.
func (r *Repository) TouchUser(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, toMillis(r.now()), id); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}
