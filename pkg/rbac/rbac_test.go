package rbac

import (
	"testing"

	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role model.Role
		perm Permission
		want bool
	}{
		{"admin kick", model.RoleAdmin, PermKick, true},
		{"admin ban", model.RoleAdmin, PermBan, true},
		{"admin shutdown", model.RoleAdmin, PermShutdown, true},
		{"user kick", model.RoleUser, PermKick, false},
		{"user ban", model.RoleUser, PermBan, false},
		{"user shutdown", model.RoleUser, PermShutdown, false},
		{"unknown role", model.Role(42), PermKick, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%v, %v) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	if msg := RequirePermission(model.RoleAdmin, PermShutdown); msg != "" {
		t.Errorf("RequirePermission(admin, shutdown) = %q, want empty", msg)
	}
	if msg := RequirePermission(model.RoleUser, PermKick); msg == "" {
		t.Error("RequirePermission(user, kick) allowed, want denial message")
	}
}
