package postgres

import (
	"time"

	"github.com/civiclink/grievance-management/internal/auth"
	userDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/user"
	"github.com/civiclink/grievance-management/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements the user.Repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) ListActive() ([]*user.User, error) {
	var rows []*userDatamodel.User
	err := r.db.Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *UserRepository) ListByClass(classes ...auth.Class) ([]*user.User, error) {
	values := make([]string, len(classes))
	for i, c := range classes {
		values[i] = string(c)
	}

	var rows []*userDatamodel.User
	err := r.db.Where("is_active = ? AND user_class IN ?", true, values).
		Order("username ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *UserRepository) UpdateProfile(id int64, username, email *string) (*user.User, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if username != nil {
		updates["username"] = *username
	}
	if email != nil {
		updates["email"] = *email
	}

	result := r.db.Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, user.ErrNotFound
	}

	return r.GetByID(id)
}

func (r *UserRepository) UsernameExistsExcept(username string, id int64) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).
		Where("username = ? AND id <> ?", username, id).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExistsExcept(email string, id int64) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).
		Where("email = ? AND id <> ?", email, id).
		Count(&count).Error
	return count > 0, err
}
