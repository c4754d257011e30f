package auth

import (
	"context"
	"testing"

	"github.com/dhearn/rollcall/internal/model"
)

func TestWithAuthRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: 7, Role: model.RoleTeacher, SessionID: 3}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
	if !IsTeacher(ctx) {
		t.Error("expected IsTeacher true")
	}
	if IsAdmin(ctx) {
		t.Error("expected IsAdmin false")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no auth context")
	}
	if UserID(ctx) != 0 {
		t.Errorf("UserID = %d, want 0", UserID(ctx))
	}
	if IsAdmin(ctx) || IsTeacher(ctx) {
		t.Error("expected no role on empty context")
	}
}
