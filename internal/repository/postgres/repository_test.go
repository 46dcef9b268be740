//go:build !integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"movieReco/domain"
	"movieReco/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "reco.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db, &domain.User{}, &domain.FeedbackEvent{}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := domain.User{FullName: "Ana", Email: "ana@example.com", Password: "hash", Role: "user"}
	if err := repo.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	if u.ID == 0 {
		t.Fatal("expected an assigned id")
	}

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Errorf("FindByEmail = %+v, %v", byEmail, err)
	}
	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Errorf("FindByID = %+v, %v", byID, err)
	}

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing id err = %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing email err = %v", err)
	}

	dup := domain.User{Email: "ana@example.com", Password: "x"}
	if err := repo.Create(ctx, &dup); err == nil {
		t.Error("duplicate email should violate the unique index")
	}
}

func seedFeedback(t *testing.T, repo *FeedbackRepository) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.FeedbackEvent{
		{UserID: 1, ItemID: 10, Kind: domain.FeedbackLike},
		{UserID: 1, ItemID: 11, Kind: domain.FeedbackClick},
		{UserID: 2, ItemID: 10, Kind: domain.FeedbackDislike},
		{UserID: 1, ItemID: 12, Kind: domain.FeedbackDislike},
		{UserID: 1, ItemID: 10, Kind: domain.FeedbackView, Context: map[string]interface{}{"source": "search"}},
	}
	for i := range events {
		events[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Save(context.Background(), &events[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFeedbackRepositoryLog(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository(openTestDB(t))
	seedFeedback(t, repo)

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("FindAll returned %d events", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID < all[i-1].ID {
			t.Errorf("log out of order at %d", i)
		}
	}
	if all[4].Context["source"] != "search" {
		t.Errorf("context = %v", all[4].Context)
	}

	mine, err := repo.ListByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 4 || mine[0].ItemID != 10 || mine[3].Kind != domain.FeedbackView {
		t.Errorf("ListByUser = %+v", mine)
	}
}

func TestFeedbackRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository(openTestDB(t))
	seedFeedback(t, repo)

	tests := []struct {
		name   string
		user   uint
		item   int64
		kind   domain.FeedbackKind
		exists bool
	}{
		{"present click", 1, 11, domain.FeedbackClick, true},
		{"other kind", 1, 10, domain.FeedbackClick, false},
		{"other user", 2, 11, domain.FeedbackClick, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ExistsByKind(ctx, tt.user, tt.item, tt.kind)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.exists {
				t.Errorf("ExistsByKind = %v, want %v", got, tt.exists)
			}
		})
	}

	counts, err := repo.CountByKind(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.FeedbackLike] != 1 || counts[domain.FeedbackDislike] != 1 || counts[domain.FeedbackClick] != 1 || counts[domain.FeedbackView] != 1 {
		t.Errorf("counts = %v", counts)
	}

	recent, err := repo.RecentByUser(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Kind != domain.FeedbackView || recent[1].ItemID != 12 {
		t.Errorf("recent = %+v", recent)
	}
}
