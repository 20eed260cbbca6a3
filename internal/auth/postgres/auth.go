package postgres

import (
	"time"

	"github.com/civiclink/grievance-management/internal/auth"
	userDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// AccountRepository implements auth.Repository against the users table.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) auth.Repository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(account *auth.Account) error {
	row := &userDatamodel.User{
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		UserClass:    string(account.Class),
		IsActive:     account.IsActive,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    time.Now(),
	}
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	account.ID = row.ID
	return nil
}

func (r *AccountRepository) GetByEmail(email string) (*auth.Account, error) {
	var row userDatamodel.User
	err := r.db.Where("email = ?", email).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.ErrAccountNotFound
		}
		return nil, err
	}
	return toAccount(&row), nil
}

func (r *AccountRepository) GetByID(id int64) (*auth.Account, error) {
	var row userDatamodel.User
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.ErrAccountNotFound
		}
		return nil, err
	}
	return toAccount(&row), nil
}

func (r *AccountRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func toAccount(row *userDatamodel.User) *auth.Account {
	return &auth.Account{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		Class:        auth.Class(row.UserClass),
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
	}
}
