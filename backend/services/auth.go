package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"inteqt-web/backend/config"
	"inteqt-web/backend/models"
	"inteqt-web/backend/system"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// CountryResolver maps a client IP to an ISO country code ("" if unknown).
type CountryResolver interface {
	CountryCode(ip string) string
}

// AccountService authenticates credentials and manages accounts.
type AccountService struct {
	db        *gorm.DB
	cfg       config.Auth
	secret    []byte
	allowList map[string]bool
	geo       CountryResolver
	now       func() time.Time
}

// NewAccountService creates the account service. The admin allow-list is
// taken from cfg once, here.
func NewAccountService(db *gorm.DB, cfg config.Auth, geo CountryResolver) *AccountService {
	allow := make(map[string]bool, len(cfg.AdminAllowList))
	for _, e := range cfg.AdminAllowList {
		allow[normalizeEmail(e)] = true
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		db:        db,
		cfg:       cfg,
		secret:    []byte(cfg.JWTSecret),
		allowList: allow,
		geo:       geo,
		now:       time.Now,
	}
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"-"`
}

// AccountInput carries the fields for creating an account.
type AccountInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) inDomain(email string) bool {
	return strings.HasSuffix(email, strings.ToLower(s.cfg.AdminDomain))
}

func (s *AccountService) validateInput(in *AccountInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return BadRequest("Name, email and password are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return BadRequest("Invalid email format")
	}
	if len(in.Password) < minPasswordLength {
		return BadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// BootstrapFirstAdmin creates the first admin. It only succeeds while no
// admin exists (deleted ones included).
func (s *AccountService) BootstrapFirstAdmin(ctx context.Context, in AccountInput) (*models.Account, error) {
	var admins int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Account{}).
		Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return nil, Internal(err)
	}
	if admins > 0 {
		return nil, Conflict("Admin already exists")
	}

	in.Role = models.RoleAdmin
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if !s.inDomain(in.Email) {
		return nil, Forbidden("Unauthorized domain")
	}
	if !s.allowList[in.Email] {
		return nil, Forbidden("Email is not on the admin allow-list")
	}

	acc, err := s.create(ctx, in, nil)
	if err != nil {
		return nil, err
	}
	system.Info("Bootstrap admin created: %s", acc.Email)
	return acc, nil
}

// CreateAccount creates a user or admin on behalf of an admin requester.
func (s *AccountService) CreateAccount(ctx context.Context, requester *models.Account, in AccountInput) (*models.Account, error) {
	if !requester.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, BadRequest("Invalid role: must be admin or user")
	}
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if !s.inDomain(in.Email) {
		return nil, Forbidden("Unauthorized domain")
	}
	if in.Role == models.RoleAdmin && !s.allowList[in.Email] {
		return nil, Forbidden("Email is not on the admin allow-list")
	}

	acc, err := s.create(ctx, in, &requester.ID)
	if err != nil {
		return nil, err
	}
	system.Info("Account created: %s (%s) by %s", acc.Email, acc.Role, requester.Email)
	return acc, nil
}

// CreateAdmin is CreateAccount with the admin role.
func (s *AccountService) CreateAdmin(ctx context.Context, requester *models.Account, in AccountInput) (*models.Account, error) {
	in.Role = models.RoleAdmin
	return s.CreateAccount(ctx, requester, in)
}

func (s *AccountService) create(ctx context.Context, in AccountInput, createdBy *string) (*models.Account, error) {
	var existing int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Account{}).
		Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, Internal(err)
	}
	if existing > 0 {
		return nil, Conflict("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, Internal(fmt.Errorf("hash password: %w", err))
	}

	acc := &models.Account{
		Name:        in.Name,
		Email:       in.Email,
		Password:    string(hashed),
		Role:        in.Role,
		Active:      true,
		CreatedByID: createdBy,
	}
	if err := s.db.WithContext(ctx).Create(acc).Error; err != nil {
		return nil, storeError(err, "Email already registered", "")
	}
	return acc, nil
}

// Login checks credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if !s.inDomain(email) {
		system.Warn("Login rejected for out-of-domain email: %s", email)
		return nil, Unauthorized("Unauthorized domain")
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			system.Warn("Failed login attempt for unknown account: %s", email)
			return nil, Unauthorized("Invalid credentials")
		}
		return nil, Internal(err)
	}
	if !acc.Active {
		return nil, Unauthorized("Account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)); err != nil {
		system.Warn("Failed login attempt for account: %s", email)
		return nil, Unauthorized("Invalid credentials")
	}

	now := s.now()
	updates := map[string]interface{}{"last_login_at": now}
	if s.geo != nil && clientIP != "" {
		if cc := s.geo.CountryCode(clientIP); cc != "" {
			updates["last_login_country"] = cc
			acc.LastLoginCountry = cc
		}
	}
	if err := s.db.WithContext(ctx).Model(&acc).Updates(updates).Error; err != nil {
		// Login bookkeeping is not worth failing the login over.
		system.Warn("Failed to record login for %s: %v", email, err)
	}
	acc.LastLoginAt = &now

	token, expiresAt, err := s.IssueToken(&acc)
	if err != nil {
		return nil, Internal(err)
	}
	system.Info("User logged in: %s", email)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: &acc}, nil
}

// IssueToken signs an HS256 token carrying the account id.
func (s *AccountService) IssueToken(acc *models.Account) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   acc.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *AccountService) Authenticate(ctx context.Context, tokenString string) (*models.Account, error) {
	if tokenString == "" {
		return nil, Unauthorized("Missing authorization token")
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, Unauthorized("Invalid or expired token")
	}
	if !claims.VerifyExpiresAt(s.now(), true) {
		return nil, Unauthorized("Invalid or expired token")
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("Account not found")
		}
		return nil, Internal(err)
	}
	if !acc.Active {
		return nil, Unauthorized("Account is disabled")
	}
	return &acc, nil
}

// ChangePassword replaces the requester's password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, requester *models.Account, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return BadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(requester.Password), []byte(oldPassword)); err != nil {
		return BadRequest("Old password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return Internal(fmt.Errorf("hash password: %w", err))
	}
	if err := s.db.WithContext(ctx).Model(requester).Update("password", string(hashed)).Error; err != nil {
		return Internal(err)
	}
	requester.Password = string(hashed)
	system.Info("User changed password: %s", requester.Email)
	return nil
}

// ListAccounts returns every non-deleted account, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, requester *models.Account) ([]models.Account, error) {
	if !requester.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, Internal(err)
	}
	return accounts, nil
}

// Deactivate disables an account and soft-deletes it.
func (s *AccountService) Deactivate(ctx context.Context, requester *models.Account, id string) error {
	if !requester.IsAdmin() {
		return Forbidden("Admin access required")
	}
	if requester.ID == id {
		return BadRequest("You cannot deactivate your own account")
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, "id = ?", id).Error; err != nil {
		return storeError(err, "", "Account not found")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&acc).Update("active", false).Error; err != nil {
			return err
		}
		return tx.Delete(&acc).Error
	})
	if err != nil {
		return Internal(err)
	}
	system.Info("Account deactivated: %s by %s", acc.Email, requester.Email)
	return nil
}
