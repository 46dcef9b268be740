package user

import (
	"context"
	"errors"
	"strconv"
	"time"

	"movieReco/domain"
	"movieReco/pkg/logger"
	"movieReco/pkg/utils"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// FeedbackStatsRepository contract interface
type FeedbackStatsRepository interface {
	CountByKind(ctx context.Context, userID uint) (map[domain.FeedbackKind]int64, error)
	RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.FeedbackEvent, error)
}

// TitleLookup resolves movie titles for display.
type TitleLookup interface {
	Title(itemID int64) string
}

type userService struct {
	userRepo     UserRepository
	feedbackRepo FeedbackStatsRepository
	titles       TitleLookup
	validate     *validator.Validate
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	recentFeedbackLimit = 10
)

func NewUserService(
	userRepo UserRepository,
	feedbackRepo FeedbackStatsRepository,
	titles TitleLookup,
	validate *validator.Validate,
) *userService {
	return &userService{
		userRepo:     userRepo,
		feedbackRepo: feedbackRepo,
		titles:       titles,
		validate:     validate,
	}
}

func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.User{}, errors.New("invalid email format")
	}

	if err := s.validate.Var(user.Password, "required,min=6"); err != nil {
		logger.Error("Invalid user password", err)
		return domain.User{}, errors.New("password must be at least 6 characters")
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err == nil && existingUser.ID > 0 {
		logger.Warn("Email already exists", "email", user.Email)
		return domain.User{}, ErrEmailExists
	}

	passwordHash, err := utils.HashPassword(user.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	newUser := domain.User{
		FullName: user.FullName,
		Email:    user.Email,
		Password: string(passwordHash),
		Role:     RoleUser,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", err)
		return domain.User{}, err
	}

	newUser.Password = ""
	return newUser, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Warn("Login for unknown email", "email", email)
		return "", domain.User{}, ErrInvalidCredentials
	}

	if !utils.CheckPassword(password, user.Password) {
		logger.Warn("User password incorrect", "user_id", user.ID)
		return "", domain.User{}, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return "", domain.User{}, errors.New("failed to generate token")
	}

	user.Password = ""
	return token, user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by id", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// Stats summarises a user's feedback history. Every event that is neither a
// like nor a dislike is reported under "Views".
func (s *userService) Stats(ctx context.Context, userID uint) (domain.UserStats, error) {
	counts, err := s.feedbackRepo.CountByKind(ctx, userID)
	if err != nil {
		logger.Error("Failed to count user feedback", err)
		return domain.UserStats{}, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	likes := counts[domain.FeedbackLike]
	dislikes := counts[domain.FeedbackDislike]

	recent, err := s.feedbackRepo.RecentByUser(ctx, userID, recentFeedbackLimit)
	if err != nil {
		logger.Error("Failed to list recent feedback", err)
		return domain.UserStats{}, err
	}

	items := make([]domain.RecentFeedback, 0, len(recent))
	for _, ev := range recent {
		items = append(items, domain.RecentFeedback{
			ItemID:    ev.ItemID,
			Title:     s.titles.Title(ev.ItemID),
			Kind:      ev.Kind,
			Timestamp: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return domain.UserStats{
		TotalFeedback: total,
		Likes:         likes,
		Dislikes:      dislikes,
		FeedbackDistribution: []domain.StatBucket{
			{Name: "Likes", Value: likes},
			{Name: "Dislikes", Value: dislikes},
			{Name: "Views", Value: total - likes - dislikes},
		},
		RecentFeedback: items,
	}, nil
}
