// Package policy holds authorization rules as data. Handlers and services
// ask Allows(role, action) instead of repeating role comparisons inline.
package policy

// Role is an authenticated actor's role.
type Role string

const (
	RoleBuyer       Role = "buyer"
	RoleVendor      Role = "vendor"
	RoleAdmin       Role = "admin"
	RoleMasterAdmin Role = "master_admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleVendor, RoleAdmin, RoleMasterAdmin:
		return Role(s), true
	}
	return "", false
}

// Action names an authorization-sensitive operation.
type Action string

const (
	ActionPlaceOrder       Action = "order.place"
	ActionCancelOrder      Action = "order.cancel"
	ActionAdvanceOrder     Action = "order.advance"
	ActionFulfillItem      Action = "order.fulfill_item"
	ActionListAllOrders    Action = "order.list_all"
	ActionCreateProduct    Action = "product.create"
	ActionListAllProducts  Action = "product.list_all"
	ActionUpdateProduct    Action = "product.update"
	ActionArchiveProduct   Action = "product.archive"
	ActionReviewVendor     Action = "vendor.review"
	ActionOnboardVendor    Action = "vendor.onboard"
	ActionListUsers        Action = "user.list"
	ActionUpdateUser       Action = "user.update"
	ActionGrantAdmin       Action = "user.grant_admin"
	ActionDeactivateUser   Action = "user.deactivate"
)

// rules maps each action to the roles permitted to perform it. Resource-level
// ownership (a vendor fulfilling only their own line, a buyer reading only
// their own order) is enforced by the owning service on top of this table.
var rules = map[Action][]Role{
	ActionPlaceOrder:      {RoleBuyer, RoleVendor, RoleAdmin, RoleMasterAdmin},
	ActionCancelOrder:     {RoleAdmin, RoleMasterAdmin},
	ActionAdvanceOrder:    {RoleAdmin, RoleMasterAdmin},
	ActionFulfillItem:     {RoleVendor},
	ActionListAllOrders:   {RoleAdmin, RoleMasterAdmin},
	ActionCreateProduct:   {RoleVendor, RoleAdmin, RoleMasterAdmin},
	ActionListAllProducts: {RoleAdmin, RoleMasterAdmin},
	ActionUpdateProduct:   {RoleVendor, RoleAdmin, RoleMasterAdmin},
	ActionArchiveProduct:  {RoleVendor, RoleAdmin, RoleMasterAdmin},
	ActionReviewVendor:    {RoleAdmin, RoleMasterAdmin},
	ActionOnboardVendor:   {RoleBuyer, RoleVendor},
	ActionListUsers:       {RoleAdmin, RoleMasterAdmin},
	ActionUpdateUser:      {RoleAdmin, RoleMasterAdmin},
	ActionGrantAdmin:      {RoleMasterAdmin},
	ActionDeactivateUser:  {RoleAdmin, RoleMasterAdmin},
}

// Allows reports whether role may perform action.
func Allows(role Role, action Action) bool {
	for _, r := range rules[action] {
		if r == role {
			return true
		}
	}
	return false
}

// PublishOutcome is what happens when an unverified vendor's product is
// submitted with active status.
type PublishOutcome string

const (
	// PublishCoerce saves the product as a draft instead of failing the
	// request. Used for vendor self-service so saving never breaks.
	PublishCoerce PublishOutcome = "coerce"
	// PublishReject fails the request outright. Used for admins, who are
	// expected to know the vendor's verification status.
	PublishReject PublishOutcome = "reject"
)

// PublishPolicyFor returns the unverified-publish outcome for an actor role.
func PublishPolicyFor(role Role) PublishOutcome {
	if role == RoleAdmin || role == RoleMasterAdmin {
		return PublishReject
	}
	return PublishCoerce
}

// IsAdmin reports whether role carries admin privileges.
func IsAdmin(role Role) bool {
	return role == RoleAdmin || role == RoleMasterAdmin
}
