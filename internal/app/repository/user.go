package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

type UserFilter struct {
	Role     role.Role
	Search   string
	Ordering string
}

var userOrdering = map[string]string{
	"date_creation": "created_at",
	"nom":           "last_name",
	"email":         "email",
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (*ds.User, error) {
	var user ds.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "utilisateur", id)
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*ds.User, error) {
	var user ds.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "utilisateur", email)
	}
	return &user, nil
}

func (r *Repository) ListUsers(ctx context.Context, f UserFilter) ([]ds.User, error) {
	q := r.db.WithContext(ctx).Model(&ds.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Search != "" {
		p := like(f.Search)
		q = q.Where("LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
	}

	var users []ds.User
	err := orderBy(q, f.Ordering, userOrdering, "id").Find(&users).Error
	return users, err
}

// CreateUser stores a new account. The email is normalised to lower case and
// must not be in use.
func (r *Repository) CreateUser(ctx context.Context, user *ds.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.checkEmail(ctx, user.Email, 0); err != nil {
		return err
	}
	return r.write(ctx).Create(user).Error
}

func (r *Repository) UpdateUser(ctx context.Context, user *ds.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.checkEmail(ctx, user.Email, user.ID); err != nil {
		return err
	}
	return r.write(ctx).Save(user).Error
}

func (r *Repository) checkEmail(ctx context.Context, email string, self uint) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&ds.User{}).
		Where("email = ? AND id <> ?", email, self).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Invalid("email", "already_exists")
	}
	return nil
}

// DeleteUser removes the user and everything owned by it: grant requests with
// their documents and payments, notifications, and the agent profile with its
// reports. Requests the user was handling as agent are kept with no agent.
// The storage paths of removed documents are returned so the caller can drop
// the files.
func (r *Repository) DeleteUser(ctx context.Context, id uint) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user ds.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, "utilisateur", id)
		}

		requests := tx.Model(&ds.GrantRequest{}).Select("id").Where("user_id = ?", id)
		if err := tx.Model(&ds.Document{}).Where("grant_request_id IN (?)", requests).
			Pluck("path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("grant_request_id IN (?)", requests).Delete(&ds.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grant_request_id IN (?)", requests).Delete(&ds.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ds.GrantRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&ds.GrantRequest{}).Where("agent_id = ?", id).
			Update("agent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ds.Notification{}).Error; err != nil {
			return err
		}
		agents := tx.Model(&ds.Agent{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("agent_id IN (?)", agents).Delete(&ds.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ds.Agent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
