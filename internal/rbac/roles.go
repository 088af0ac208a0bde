package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleOperator   = "operator"
	RoleAnalyst    = "analyst"
	RoleFinance    = "finance"
	RoleSuperAdmin = "super_admin"

	RoleBillingBot = "billing_bot" // hidden role for internal reconciliation jobs
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleBillingBot }
