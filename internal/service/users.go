package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/internal/repository"
	"github.com/Astemirdum/library-manager/pkg/auth"
)

type UserService struct {
	repo      repository.UserRepository
	checkouts repository.CheckoutRepository
	authCfg   auth.Config
	log       *zap.Logger
}

func NewUserService(
	repo repository.UserRepository,
	checkouts repository.CheckoutRepository,
	authCfg auth.Config,
	log *zap.Logger,
) *UserService {
	return &UserService{
		repo:      repo,
		checkouts: checkouts,
		authCfg:   authCfg,
		log:       log.Named("users"),
	}
}

func (s *UserService) ListUsers(ctx context.Context, filter model.UserFilter, page model.PageQuery) (model.UserList, error) {
	return s.repo.ListUsers(ctx, filter, page)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (model.UserDetail, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return model.UserDetail{}, err
	}
	borrowed, err := s.checkouts.ListBorrowedByUser(ctx, id)
	if err != nil {
		return model.UserDetail{}, err
	}
	return model.UserDetail{User: user, Checkouts: borrowed}, nil
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	_, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return model.User{}, errs.ErrEmailExists
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}

	return s.repo.CreateUser(ctx, model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Phone:    req.Phone,
	})
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return model.AuthResponse{}, errs.ErrWrongPassword
	}

	token, expiresAt, err := auth.NewToken(s.authCfg, auth.Identity{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "sign token")
	}

	return model.AuthResponse{
		User:        user.Email,
		AccessToken: token,
		ExpiresIn:   expiresAt.Unix(),
	}, nil
}

func (s *UserService) PromoteAdmin(ctx context.Context, id int64) (model.User, error) {
	return s.repo.PromoteAdmin(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error) {
	if req.Name == nil && req.Phone == nil {
		user, err := s.repo.GetUser(ctx, id)
		if err != nil {
			return model.User{}, err
		}
		if user.IsDeleted {
			return model.User{}, errs.ErrNotFound
		}
		return user, nil
	}
	return s.repo.UpdateUser(ctx, id, req)
}

// DeleteUser removes an account. Admins cannot be deleted; a user with
// borrowing history is only marked deleted.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (model.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if user.IsAdmin {
		return model.User{}, errs.ErrAdminDelete
	}

	history, err := s.checkouts.CountByUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if history > 0 {
		return s.repo.SoftDeleteUser(ctx, id)
	}
	return s.repo.HardDeleteUser(ctx, id)
}
