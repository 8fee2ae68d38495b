package repository

import (
	"context"

	"gorm.io/gorm"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

type AgentFilter struct {
	Department  string
	CanValidate *bool
	Search      string
}

func (r *Repository) GetAgentByID(ctx context.Context, id uint) (*ds.Agent, error) {
	var agent ds.Agent
	if err := r.db.WithContext(ctx).Preload("User").First(&agent, id).Error; err != nil {
		return nil, notFound(err, "agent", id)
	}
	return &agent, nil
}

func (r *Repository) GetAgentByUserID(ctx context.Context, userID uint) (*ds.Agent, error) {
	var agent ds.Agent
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&agent).Error
	if err != nil {
		return nil, notFound(err, "agent", userID)
	}
	return &agent, nil
}

func (r *Repository) ListAgents(ctx context.Context, f AgentFilter) ([]ds.Agent, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.CanValidate != nil {
		q = q.Where("can_validate = ?", *f.CanValidate)
	}
	if f.Search != "" {
		p := like(f.Search)
		users := r.db.Model(&ds.User{}).Select("id").
			Where("LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
		q = q.Where("LOWER(department) LIKE ? OR LOWER(function) LIKE ? OR user_id IN (?)", p, p, users)
	}

	var agents []ds.Agent
	err := q.Order("id").Find(&agents).Error
	return agents, err
}

// CreateAgent attaches an agent profile to a user. The user must exist, hold
// the agent role and have no profile yet.
func (r *Repository) CreateAgent(ctx context.Context, agent *ds.Agent) error {
	user, err := r.agentUser(ctx, agent.UserID)
	if err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&ds.Agent{}).Where("user_id = ?", agent.UserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Invalid("utilisateur_id", "already_exists")
	}

	if err := r.write(ctx).Create(agent).Error; err != nil {
		return err
	}
	agent.User = *user
	return nil
}

func (r *Repository) UpdateAgent(ctx context.Context, agent *ds.Agent) error {
	return r.write(ctx).Save(agent).Error
}

// DeleteAgent removes the profile and its reports. The user account stays.
func (r *Repository) DeleteAgent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agent_id = ?", id).Delete(&ds.Report{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&ds.Agent{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("agent", id)
		}
		return nil
	})
}

func (r *Repository) agentUser(ctx context.Context, userID uint) (*ds.User, error) {
	user, err := r.GetUserByID(ctx, userID)
	if apperr.IsNotFound(err) {
		return nil, apperr.Invalid("utilisateur_id", "not_found")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != role.Agent {
		return nil, apperr.Invalid("utilisateur_id", "user_is_not_an_agent")
	}
	return user, nil
}
