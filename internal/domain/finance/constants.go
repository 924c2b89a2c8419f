package finance

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	CategoryPayroll = "payroll"
	CategoryInvoice = "invoice"
	CategoryGeneral = "general"

	InvoiceTypeSale     = "sale"
	InvoiceTypePurchase = "purchase"
)
