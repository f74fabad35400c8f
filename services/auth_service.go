package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"novabyte-blog/models"
	"novabyte-blog/repositories"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = models.ErrorUnauthorized{Message: "invalid credentials"}

type AuthConfig struct {
	Secret      []byte
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	SystemActor string
	AdminEmails []string
}

type AuthService interface {
	SignUp(ctx context.Context, in models.SignUpInput) (*models.Person, error)
	LogIn(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	LogOut(ctx context.Context, personID string) error
	GetPerson(ctx context.Context, id string) (*models.Person, error)
	ListPersons(ctx context.Context) ([]models.Person, error)
}

type authService struct {
	cfg        AuthConfig
	tx         repositories.Transactor
	personRepo repositories.PersonRepository
	tokenRepo  repositories.TokenRepository
	now        repositories.Clock
}

func NewAuthService(
	cfg AuthConfig,
	tx repositories.Transactor,
	personRepo repositories.PersonRepository,
	tokenRepo repositories.TokenRepository,
	clock repositories.Clock,
) AuthService {
	if clock == nil {
		clock = repositories.SystemClock
	}
	return &authService{
		cfg:        cfg,
		tx:         tx,
		personRepo: personRepo,
		tokenRepo:  tokenRepo,
		now:        clock,
	}
}

func (s *authService) SignUp(ctx context.Context, in models.SignUpInput) (*models.Person, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return nil, models.ErrorValidation{Err: err}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	person, err := s.personRepo.Create(ctx, &models.Person{
		Username: in.Username,
		Email:    in.Email,
		PassHash: string(hash),
		IsAdmin:  s.isAdminEmail(in.Email),
	}, s.cfg.SystemActor)
	if err != nil {
		var conflict models.ErrorConflict
		if errors.As(err, &conflict) {
			return nil, models.ErrorConflict{Message: "username or email already registered", Err: err}
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("person_id", person.ID).Bool("is_admin", person.IsAdmin).Msg("person signed up")
	return person, nil
}

func (s *authService) isAdminEmail(email string) bool {
	for _, admin := range s.cfg.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

func (s *authService) LogIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	person, err := s.personRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.PassHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := s.tokenRepo.Create(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(person, token)
}

// Refresh trades a live refresh token for a new pair. Revoking the old token
// and creating its replacement commit together.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var (
		person *models.Person
		token  *models.RefreshToken
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		old, err := s.tokenRepo.GetByID(ctx, refreshToken)
		if err != nil {
			if models.IsNotFound(err) {
				return models.ErrorUnauthorized{Message: "refresh token not recognised"}
			}
			return err
		}
		if !old.Valid(s.now(), s.cfg.RefreshTTL) {
			return models.ErrorUnauthorized{Message: "refresh token expired or revoked"}
		}

		revoked, err := s.tokenRepo.SoftDelete(ctx, old.ID, old.PersonID)
		if err != nil {
			return err
		}
		if !revoked {
			return models.ErrorUnauthorized{Message: "refresh token already used"}
		}

		person, err = s.personRepo.GetByID(ctx, old.PersonID)
		if err != nil {
			if models.IsNotFound(err) {
				return models.ErrorUnauthorized{Message: "account no longer exists"}
			}
			return err
		}

		token, err = s.tokenRepo.Create(ctx, person.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.issue(person, token)
}

func (s *authService) LogOut(ctx context.Context, personID string) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		n, err := s.tokenRepo.SoftDeleteAllForPerson(ctx, personID, personID)
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Str("person_id", personID).Int64("revoked", n).Msg("person logged out")
		return nil
	})
}

func (s *authService) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	return s.personRepo.GetByID(ctx, id)
}

func (s *authService) ListPersons(ctx context.Context) ([]models.Person, error) {
	return s.personRepo.List(ctx)
}

func (s *authService) issue(person *models.Person, token *models.RefreshToken) (*models.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	claims := &models.Claims{
		PersonID: person.ID,
		Username: person.Username,
		IsAdmin:  person.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   person.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  signed,
		RefreshToken: token.ID,
		ExpiresAt:    expiresAt,
		Person:       *person,
	}, nil
}

// ParseAccessToken verifies an HS256 access token and returns its claims.
func ParseAccessToken(secret []byte, tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, models.ErrorUnauthorized{Message: "invalid token: " + err.Error()}
	}
	if !token.Valid || claims.PersonID == "" {
		return nil, models.ErrorUnauthorized{Message: "token is not valid"}
	}
	return claims, nil
}
