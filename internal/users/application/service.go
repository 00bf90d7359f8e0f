package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	users "github.com/dshinde1318/Milk-Management-System-backend/internal/users/domain"
)

// Service owns the user directory workflows.
type Service struct {
	repo     users.Repository
	secret   []byte
	tokenTTL time.Duration
}

// NewService constructs a directory service.
func NewService(repo users.Repository, secret []byte, tokenTTL time.Duration) (*Service, error) {
	if repo == nil {
		return nil, errors.New("user service: nil repo")
	}
	if len(secret) == 0 {
		return nil, errors.New("user service: empty jwt secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}, nil
}

// Login verifies mobile+password and issues a signed token.
func (s *Service) Login(ctx context.Context, mobile, password string) (string, *users.User, error) {
	user, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, users.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, users.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, users.ErrInactive
	}

	token, err := auth.IssueJWT(user.ID, user.Mobile, user.Role, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	sanitized := user.Sanitized()
	return token, &sanitized, nil
}

// Me loads the caller's own profile.
func (s *Service) Me(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, users.ErrNotFound
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// CreateInput registers a new account.
type CreateInput struct {
	Name          string
	Mobile        string
	Email         string
	Address       string
	Role          auth.Role
	Password      string
	OpeningAmount decimal.Decimal
	PendingAmount decimal.Decimal
}

// UpdatePatch applies partial field changes to an account.
type UpdatePatch struct {
	Name          *string
	Mobile        *string
	Email         *string
	Address       *string
	Password      *string
	OpeningAmount *decimal.Decimal
	PendingAmount *decimal.Decimal
	IsActive      *bool
}

// Create registers an account of any role.
func (s *Service) Create(ctx context.Context, role auth.Role, input CreateInput) (*users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	return s.create(ctx, input)
}

// CreateBuyer registers a buyer account regardless of the requested role.
func (s *Service) CreateBuyer(ctx context.Context, role auth.Role, input CreateInput) (*users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	input.Role = auth.RoleBuyer
	return s.create(ctx, input)
}

func (s *Service) create(ctx context.Context, input CreateInput) (*users.User, error) {
	if input.Name == "" {
		return nil, errors.New("user service: empty name")
	}
	if input.Mobile == "" {
		return nil, errors.New("user service: empty mobile")
	}
	if input.Password == "" {
		return nil, errors.New("user service: empty password")
	}
	if _, ok := auth.NormalizeRole(string(input.Role)); !ok {
		return nil, errors.New("user service: invalid role")
	}

	existing, err := s.repo.GetByMobile(ctx, input.Mobile)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, users.ErrMobileConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &users.User{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Mobile:        input.Mobile,
		Email:         input.Email,
		Address:       input.Address,
		Role:          input.Role,
		PasswordHash:  string(hash),
		IsActive:      true,
		OpeningAmount: input.OpeningAmount,
		PendingAmount: input.PendingAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Update applies field changes to an account.
func (s *Service) Update(ctx context.Context, role auth.Role, id string, patch UpdatePatch) (*users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, users.ErrNotFound
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Mobile != nil && *patch.Mobile != user.Mobile {
		taken, err := s.repo.GetByMobile(ctx, *patch.Mobile)
		if err != nil {
			return nil, err
		}
		if taken != nil && taken.ID != user.ID {
			return nil, users.ErrMobileConflict
		}
		user.Mobile = *patch.Mobile
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Address != nil {
		user.Address = *patch.Address
	}
	if patch.Password != nil && *patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if patch.OpeningAmount != nil {
		user.OpeningAmount = *patch.OpeningAmount
	}
	if patch.PendingAmount != nil {
		user.PendingAmount = *patch.PendingAmount
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// ToggleActive flips the account's active flag.
func (s *Service) ToggleActive(ctx context.Context, role auth.Role, id string) (*users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, users.ErrNotFound
	}
	user.IsActive = !user.IsActive
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Remove hard-deletes an account. Existing deliveries keep the id reference.
func (s *Service) Remove(ctx context.Context, role auth.Role, id string) error {
	if err := auth.RequireAdmin(role); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Get loads a single account.
func (s *Service) Get(ctx context.Context, role auth.Role, id string) (*users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, users.ErrNotFound
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// List returns accounts matching the filter, sanitized.
func (s *Service) List(ctx context.Context, role auth.Role, filter users.ListFilter) ([]users.User, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Sanitized()
	}
	return list, nil
}

// SellerExists reports whether an active seller (or admin acting as one)
// exists under the id. Satisfies the ledger's identity checks.
func (s *Service) SellerExists(ctx context.Context, id string) (bool, error) {
	return s.activeWithRole(ctx, id, auth.RoleSeller)
}

// BuyerExists reports whether an active buyer exists under the id.
func (s *Service) BuyerExists(ctx context.Context, id string) (bool, error) {
	return s.activeWithRole(ctx, id, auth.RoleBuyer)
}

func (s *Service) activeWithRole(ctx context.Context, id string, role auth.Role) (bool, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user == nil || !user.IsActive {
		return false, nil
	}
	return user.Role == role || user.Role == auth.RoleAdmin, nil
}

// MobileFor returns the mobile number for an account, empty when absent.
// Notification channels use it to address the buyer.
func (s *Service) MobileFor(ctx context.Context, id string) (string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.Mobile, nil
}
