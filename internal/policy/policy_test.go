package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		action Action
		want   bool
	}{
		{name: "buyer places order", role: RoleBuyer, action: ActionPlaceOrder, want: true},
		{name: "buyer cannot cancel", role: RoleBuyer, action: ActionCancelOrder, want: false},
		{name: "vendor cannot cancel", role: RoleVendor, action: ActionCancelOrder, want: false},
		{name: "admin cancels", role: RoleAdmin, action: ActionCancelOrder, want: true},
		{name: "only vendor fulfills", role: RoleAdmin, action: ActionFulfillItem, want: false},
		{name: "vendor fulfills", role: RoleVendor, action: ActionFulfillItem, want: true},
		{name: "admin lists all products", role: RoleAdmin, action: ActionListAllProducts, want: true},
		{name: "vendor cannot list all products", role: RoleVendor, action: ActionListAllProducts, want: false},
		{name: "admin cannot grant admin", role: RoleAdmin, action: ActionGrantAdmin, want: false},
		{name: "master admin grants admin", role: RoleMasterAdmin, action: ActionGrantAdmin, want: true},
		{name: "unknown action denies", role: RoleMasterAdmin, action: Action("nope"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.role, tt.action))
		})
	}
}

func TestPublishPolicyFor(t *testing.T) {
	assert.Equal(t, PublishCoerce, PublishPolicyFor(RoleVendor))
	assert.Equal(t, PublishCoerce, PublishPolicyFor(RoleBuyer))
	assert.Equal(t, PublishReject, PublishPolicyFor(RoleAdmin))
	assert.Equal(t, PublishReject, PublishPolicyFor(RoleMasterAdmin))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("vendor")
	assert.True(t, ok)
	assert.Equal(t, RoleVendor, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}
