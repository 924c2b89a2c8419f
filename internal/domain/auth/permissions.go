package auth

const (
	RoleAgency    = "agency"
	RoleHR        = "hr"
	RoleFinance   = "finance"
	RoleDirection = "direction"
	RoleAdmin     = "admin"
)

const (
	PermEmployeesRead     = "core.employees.read"
	PermEmployeesWrite    = "core.employees.write"
	PermAgencyManage      = "agency.manage"
	PermHRValidate        = "hr.validate"
	PermPayrollRead       = "payroll.read"
	PermPayrollWrite      = "payroll.write"
	PermFinanceRead       = "finance.read"
	PermFinanceValidate   = "finance.validate"
	PermFinancePay        = "finance.pay"
	PermDirectionView     = "direction.view"
	PermDirectionApprove  = "direction.approve"
	PermInvoicesRead      = "invoices.read"
	PermInvoicesWrite     = "invoices.write"
	PermLotsRead          = "property.lots.read"
	PermLotsWrite         = "property.lots.write"
	PermNotificationsRead = "notifications.read"
	PermAuditRead         = "audit.read"
	PermSystemAdmin       = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermAgencyManage,
	PermHRValidate,
	PermPayrollRead,
	PermPayrollWrite,
	PermFinanceRead,
	PermFinanceValidate,
	PermFinancePay,
	PermDirectionView,
	PermDirectionApprove,
	PermInvoicesRead,
	PermInvoicesWrite,
	PermLotsRead,
	PermLotsWrite,
	PermNotificationsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleAgency: {
		PermEmployeesRead,
		PermAgencyManage,
		PermPayrollRead,
		PermFinanceRead,
		PermInvoicesRead,
		PermInvoicesWrite,
		PermLotsRead,
		PermLotsWrite,
		PermNotificationsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermHRValidate,
		PermPayrollRead,
		PermPayrollWrite,
		PermNotificationsRead,
	},
	RoleFinance: {
		PermEmployeesRead,
		PermPayrollRead,
		PermFinanceRead,
		PermFinanceValidate,
		PermFinancePay,
		PermInvoicesRead,
		PermNotificationsRead,
	},
	RoleDirection: {
		PermEmployeesRead,
		PermPayrollRead,
		PermFinanceRead,
		PermDirectionView,
		PermDirectionApprove,
		PermInvoicesRead,
		PermLotsRead,
		PermNotificationsRead,
		PermAuditRead,
	},
	RoleAdmin: {
		PermSystemAdmin,
	},
}
