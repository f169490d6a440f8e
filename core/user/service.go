package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrAdminExists        = errors.New("default admin already exists")
	ErrSeedNotConfigured  = errors.New("default admin credentials are not configured")
	ErrSelfDeactivation   = errors.New("you cannot deactivate your own account")
)

type (
	GetFilter struct {
		ID    string
		Email string
	}

	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns the User matching all set GetFilter fields.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers returns the users matching filter, newest first.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// TokenRevoker invalidates the tokens issued to a user up to a given instant.
	TokenRevoker interface {
		RevokeUser(ctx context.Context, userID string, at time.Time) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		revoker TokenRevoker
	}
)

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

func NewService(repo Repository, mailSvc core.EmailService, revoker TokenRevoker) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, revoker: revoker}
}

// Register creates a new active User. Admin accounts get a welcome email.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	now := NowFunc()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() {
		svc.sendWelcomeMail(usr)
	}
	return usr, nil
}

// Authenticate checks the credentials of an active User and records the login.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(creds.Email, true /* lower */)})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = NowFunc()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, pkgerrors.Wrap(err, "setting lastLogin")
}

// SeedAdmin creates the configured default admin once.
func (svc *Service) SeedAdmin(ctx context.Context, seed core.SeedAdminConfig) (User, error) {
	if !seed.IsSet() {
		return User{}, ErrSeedNotConfigured
	}
	email := core.CleanString(seed.Email, true /* lower */)
	if _, err := svc.repo.GetUser(ctx, GetFilter{Email: email}); err == nil {
		return User{}, ErrAdminExists
	} else if err != ErrNotFound {
		return User{}, pkgerrors.Wrap(err, "finding default admin")
	}

	name := core.CleanString(seed.Name)
	if name == "" {
		name = "Admin"
	}
	now := NowFunc()
	usr := User{
		Name:      name,
		Email:     email,
		Role:      RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(seed.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err == ErrEmailExists {
		return User{}, ErrAdminExists
	}
	return usr, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) ListStudents(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleStudent})
}

func (svc *Service) ListAdmins(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleAdmin})
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountUsers(ctx, filter)
}

// SetActive toggles a User's active flag. Deactivation revokes every token issued so far.
func (svc *Service) SetActive(ctx context.Context, actorID, id string, active bool) (User, error) {
	if !active && actorID == id {
		return User{}, ErrSelfDeactivation
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	now := NowFunc()
	usr.IsActive = active
	usr.UpdatedAt = now
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, pkgerrors.Wrap(err, "updating user")
	}
	if !active && svc.revoker != nil {
		if err = svc.revoker.RevokeUser(ctx, usr.ID, now); err != nil {
			return User{}, pkgerrors.Wrap(err, "revoking tokens")
		}
	}
	return usr, nil
}

// SetPassword replaces the password of the User identified by email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// Save updates the User with the same email, or creates it.
func (svc *Service) Save(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: nu.Email})
	if err == ErrNotFound {
		return svc.Register(ctx, nu)
	} else if err != nil {
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if nu.Name != "" {
		usr.Name = nu.Name
	}
	usr.Role = nu.Role
	usr.IsActive = true
	usr.UpdatedAt = NowFunc()
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

type welcomeData struct {
	Name  string
	Email string
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your teacher account",
		TemplateName: "welcome",
		TemplateData: welcomeData{Name: usr.Name, Email: usr.Email},
	})
}
