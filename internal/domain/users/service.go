package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"softpet/internal/domain/validation"
	"softpet/internal/ports/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	repo   Repository
	tokens auth.TokenIssuer
	cost   int
	now    func() time.Time
}

func NewService(repo Repository, tokens auth.TokenIssuer, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		cost:   bcryptCost,
		now:    time.Now,
	}
}

type Credentials struct {
	Email    string
	Password string
}

// Session es el resultado de register/login: identidad + token a poner en cookie.
type Session struct {
	User  User
	Token string
}

func (s *Service) Register(ctx context.Context, in Credentials) (Session, error) {
	if err := validateRegister(in); err != nil {
		return Session{}, err
	}

	// El chequeo previo es visible como canal lateral; el unique del store cubre la carrera.
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, fmt.Errorf("users: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("users: hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("users: create: %w", err)
	}

	return s.newSession(u)
}

// Login no distingue "no existe" de "password incorrecta": ambos son ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in Credentials) (Session, error) {
	if err := validateLogin(in); err != nil {
		return Session{}, err
	}

	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("users: lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.newSession(u)
}

func (s *Service) newSession(u User) (Session, error) {
	tok, err := s.tokens.Issue(auth.Claims{UserID: u.ID, Email: u.Email})
	if err != nil {
		return Session{}, fmt.Errorf("users: issue token: %w", err)
	}
	return Session{User: u, Token: tok}, nil
}

type registerRules struct {
	Email    string `json:"email" validate:"required,email,maildomain"`
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

type loginRules struct {
	Email    string `json:"email" validate:"required,email,maildomain"`
	Password string `json:"password" validate:"required"`
}

var credentialMessages = validation.Messages{
	"email":             "Email inválido",
	"password.min":      "Senha deve ter no mínimo 6 caracteres",
	"password.maxbytes": "Senha deve ter no máximo 72 bytes",
	"password.required": "Senha é obrigatória",
}

func init() {
	validation.MustRegister("maildomain", func(fl validator.FieldLevel) bool {
		return hasDottedDomain(fl.Field().String())
	})
}

func validateRegister(in Credentials) error {
	return validation.Struct(registerRules{Email: in.Email, Password: in.Password}, credentialMessages)
}

func validateLogin(in Credentials) error {
	return validation.Struct(loginRules{Email: in.Email, Password: in.Password}, credentialMessages)
}

// hasDottedDomain exige dominio con TLD ("a@x" no alcanza).
func hasDottedDomain(s string) bool {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}
