package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/storage"
)

func newUserFixture(t *testing.T) (UserService, storage.UserRepository) {
	t.Helper()
	db := newTestDB(t)
	userRepo := storage.NewGormUserRepository(db)
	return NewUserService(userRepo), userRepo
}

func usernames(results []models.PublicUser) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Username
	}
	return names
}

// TestSearchMatchingRules covers the live-search rule: exact id, email or
// username, and case-insensitive display-name substring.
func TestSearchMatchingRules(t *testing.T) {
	svc, userRepo := newUserFixture(t)
	ctx := context.Background()

	bob := seedUser(t, userRepo, "bobby", "bob@example.com", "Bob Smith")
	seedUser(t, userRepo, "alice", "alice@example.com", "Alice Jones")
	seedUser(t, userRepo, "robert", "robert@example.com", "Robbie")

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"exact email", "bob@example.com", []string{"bobby"}},
		{"exact username", "alice", []string{"alice"}},
		{"display substring lowercase", "smith", []string{"bobby"}},
		{"display substring mixed case", "ROB", []string{"robert"}},
		{"id match", fmt.Sprint(bob.ID), []string{"bobby"}},
		{"no match", "zzz", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := svc.Search(ctx, tc.query)
			if err != nil {
				t.Fatalf("Search(%q) failed: %v", tc.query, err)
			}
			got := usernames(results)
			if len(got) != len(tc.want) {
				t.Fatalf("Search(%q) = %v, want %v", tc.query, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("Search(%q) = %v, want %v", tc.query, got, tc.want)
				}
			}
		})
	}
}

// TestSearchShortQueryAllowed verifies no server-side minimum length: a
// single character matches display names by substring.
func TestSearchShortQueryAllowed(t *testing.T) {
	svc, userRepo := newUserFixture(t)
	ctx := context.Background()

	seedUser(t, userRepo, "bobby", "bob@example.com", "Bob")
	seedUser(t, userRepo, "carol", "carol@example.com", "Carol")

	results, err := svc.Search(ctx, "b")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Username != "bobby" {
		t.Errorf("Search(%q) = %v, want [bobby]", "b", usernames(results))
	}
}

// TestSearchTreatsWildcardsLiterally verifies % and _ in a query match
// those characters in display names rather than acting as LIKE wildcards.
func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, userRepo := newUserFixture(t)
	ctx := context.Background()

	seedUser(t, userRepo, "bobby", "bob@example.com", "Bob Smith")
	seedUser(t, userRepo, "carol", "carol@example.com", "Carol Jones")
	seedUser(t, userRepo, "percy", "percy@example.com", "100% Percy")
	seedUser(t, userRepo, "uscore", "uscore@example.com", "under_score")

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"percent literal", "%", []string{"percy"}},
		{"percent in phrase", "100%", []string{"percy"}},
		{"underscore literal", "_", []string{"uscore"}},
		{"underscore in phrase", "der_sc", []string{"uscore"}},
		{"percent no match", "%smith", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := svc.Search(ctx, tc.query)
			if err != nil {
				t.Fatalf("Search(%q) failed: %v", tc.query, err)
			}
			got := usernames(results)
			if len(got) != len(tc.want) {
				t.Fatalf("Search(%q) = %v, want %v", tc.query, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("Search(%q) = %v, want %v", tc.query, got, tc.want)
				}
			}
		})
	}
}

// TestSearchDoesNotExposePassword verifies results carry only public fields.
func TestSearchDoesNotExposePassword(t *testing.T) {
	svc, userRepo := newUserFixture(t)
	ctx := context.Background()

	seedUser(t, userRepo, "bobby", "bob@example.com", "Bob")

	results, err := svc.Search(ctx, "bobby")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].DisplayName != "Bob" || results[0].Email != "bob@example.com" {
		t.Errorf("result = %+v, want bob's public profile", results[0])
	}
}

// TestPresenceFlipsOnFirstAndLastConnection verifies status only changes at
// the connection-count edges: 1 going up, 0 going down.
func TestPresenceFlipsOnFirstAndLastConnection(t *testing.T) {
	svc, userRepo := newUserFixture(t)
	ctx := context.Background()

	user := seedUser(t, userRepo, "bobby", "bob@example.com", "Bob")

	svc.Connected(user.ID, 1)
	got, err := userRepo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserStatusOnline {
		t.Errorf("Status after first connection = %q, want online", got.Status)
	}

	// A second device keeps the user online; dropping back to one connection
	// must not mark them offline either.
	svc.Connected(user.ID, 2)
	svc.Disconnected(user.ID, 1)
	got, err = userRepo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserStatusOnline {
		t.Errorf("Status with one connection left = %q, want online", got.Status)
	}
	if got.LastSeenAt != nil {
		t.Error("LastSeenAt set while still connected")
	}

	svc.Disconnected(user.ID, 0)
	got, err = userRepo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserStatusOffline {
		t.Errorf("Status after last disconnect = %q, want offline", got.Status)
	}
	if got.LastSeenAt == nil {
		t.Error("LastSeenAt not recorded at last disconnect")
	}
}
