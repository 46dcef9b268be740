//go:build !integration

package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"movieReco/domain"
	"movieReco/pkg/utils"

	"github.com/go-playground/validator/v10"
)

type memUsers struct {
	byID map[uint]domain.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint]domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	u.ID = uint(len(m.byID) + 1)
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, errors.New("user not found")
}

type stubStats struct {
	counts map[domain.FeedbackKind]int64
	recent []domain.FeedbackEvent
}

func (s stubStats) CountByKind(context.Context, uint) (map[domain.FeedbackKind]int64, error) {
	return s.counts, nil
}

func (s stubStats) RecentByUser(_ context.Context, _ uint, limit int) ([]domain.FeedbackEvent, error) {
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

type titleFunc func(int64) string

func (f titleFunc) Title(id int64) string { return f(id) }

func movieTitle(id int64) string { return fmt.Sprintf("Movie %d", id) }

func TestRegisterAndLogin(t *testing.T) {
	utils.InitJWT("test-secret", time.Hour)
	ctx := context.Background()
	svc := NewUserService(newMemUsers(), stubStats{}, titleFunc(movieTitle), validator.New())

	created, err := svc.Register(ctx, &domain.User{FullName: "Ana", Email: "ana@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Password != "" || created.Role != RoleUser {
		t.Errorf("created = %+v", created)
	}

	if _, err := svc.Register(ctx, &domain.User{Email: "ana@example.com", Password: "secret1"}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate register err = %v", err)
	}

	token, u, err := svc.Login(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := utils.ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "1" || claims.Role != RoleUser || u.ID != 1 {
		t.Errorf("claims = %+v, user = %+v", claims, u)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ana@example.com", "nope123"},
		{"unknown email", "bob@example.com", "secret1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(newMemUsers(), stubStats{}, titleFunc(movieTitle), validator.New())

	tests := []struct {
		name string
		user domain.User
	}{
		{"bad email", domain.User{Email: "not-an-email", Password: "secret1"}},
		{"short password", domain.User{Email: "a@b.io", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tt.user); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStats(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := stubStats{
		counts: map[domain.FeedbackKind]int64{
			domain.FeedbackLike:    3,
			domain.FeedbackDislike: 1,
			domain.FeedbackClick:   2,
			domain.FeedbackView:    1,
		},
		recent: []domain.FeedbackEvent{
			{ItemID: 7, Kind: domain.FeedbackLike, CreatedAt: at},
			{ItemID: 8, Kind: domain.FeedbackClick, CreatedAt: at.Add(-time.Minute)},
		},
	}
	svc := NewUserService(newMemUsers(), stats, titleFunc(movieTitle), validator.New())

	got, err := svc.Stats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalFeedback != 7 || got.Likes != 3 || got.Dislikes != 1 {
		t.Errorf("totals = %+v", got)
	}
	if views := got.FeedbackDistribution[2]; views.Name != "Views" || views.Value != 3 {
		t.Errorf("views bucket = %+v", views)
	}
	if len(got.RecentFeedback) != 2 || got.RecentFeedback[0].Title != "Movie 7" || got.RecentFeedback[0].Timestamp != "2024-05-01T12:00:00Z" {
		t.Errorf("recent = %+v", got.RecentFeedback)
	}
}

func TestStatsEmptyHistory(t *testing.T) {
	svc := NewUserService(newMemUsers(), stubStats{}, titleFunc(movieTitle), validator.New())

	got, err := svc.Stats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalFeedback != 0 || len(got.RecentFeedback) != 0 || len(got.FeedbackDistribution) != 3 {
		t.Errorf("stats = %+v", got)
	}
}
