package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

func seededDirectory(n int) *DirectoryService {
	users := make([]domain.User, 0, n)
	for i := 1; i <= n; i++ {
		user := activeUser(fmt.Sprintf("user-%02d", i))
		users = append(users, user)
	}
	return NewDirectoryService(newUserRepoMock(users...))
}

func TestListUsers_Pagination(t *testing.T) {
	svc := seededDirectory(25)
	ctx := context.Background()

	wantSizes := []int{10, 10, 5, 0}
	for page, want := range wantSizes {
		result, err := svc.ListUsers(ctx, ListUsersInput{Page: page + 1, PageSize: 10})
		if err != nil {
			t.Fatalf("page %d: %v", page+1, err)
		}
		if len(result.Users) != want {
			t.Errorf("page %d: %d users, want %d", page+1, len(result.Users), want)
		}
		if result.TotalCount != 25 {
			t.Errorf("page %d: total %d, want 25", page+1, result.TotalCount)
		}
	}
}

func TestListUsers_PageSizeClampedNotRejected(t *testing.T) {
	svc := seededDirectory(5)

	result, err := svc.ListUsers(context.Background(), ListUsersInput{Page: 1, PageSize: 5000})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.PageSize != MaxPageSize {
		t.Errorf("page size = %d, want clamped to %d", result.PageSize, MaxPageSize)
	}
}

func TestListUsers_Defaults(t *testing.T) {
	svc := seededDirectory(3)

	result, err := svc.ListUsers(context.Background(), ListUsersInput{})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.Page != 1 || result.PageSize != DefaultPageSize {
		t.Errorf("defaults = page %d size %d, want 1/%d", result.Page, result.PageSize, DefaultPageSize)
	}
}

func TestListUsers_InvalidPagination(t *testing.T) {
	svc := seededDirectory(3)
	ctx := context.Background()

	if _, err := svc.ListUsers(ctx, ListUsersInput{Page: -1, PageSize: 10}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("negative page: error = %v, want ErrMalformedRequest", err)
	}
	if _, err := svc.ListUsers(ctx, ListUsersInput{Page: 1, PageSize: -5}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("negative page size: error = %v, want ErrMalformedRequest", err)
	}
}

func TestListUsers_ExcludesInactiveByDefault(t *testing.T) {
	inactive := activeUser("user-off")
	inactive.IsActive = false
	svc := NewDirectoryService(newUserRepoMock(activeUser("user-on"), inactive))
	ctx := context.Background()

	result, err := svc.ListUsers(ctx, ListUsersInput{})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.TotalCount != 1 {
		t.Errorf("total = %d, want 1 (inactive excluded)", result.TotalCount)
	}

	result, err = svc.ListUsers(ctx, ListUsersInput{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.TotalCount != 2 {
		t.Errorf("total = %d, want 2 with include_inactive", result.TotalCount)
	}
}

func TestListUsers_SearchAndDepartment(t *testing.T) {
	alina := activeUser("user-1")
	alina.DisplayName = "Alina Petrova"
	alina.Department = "risk"
	boris := activeUser("user-2")
	boris.DisplayName = "Boris Ivanov"
	boris.Department = "compliance"
	svc := NewDirectoryService(newUserRepoMock(alina, boris))
	ctx := context.Background()

	result, err := svc.ListUsers(ctx, ListUsersInput{Search: "ALINA"})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.TotalCount != 1 || result.Users[0].ID != "user-1" {
		t.Errorf("case-insensitive search failed: %+v", result)
	}

	result, err = svc.ListUsers(ctx, ListUsersInput{Department: "compliance"})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if result.TotalCount != 1 || result.Users[0].ID != "user-2" {
		t.Errorf("department filter failed: %+v", result)
	}
}
