package payroll

import "github.com/shopspring/decimal"

// NetSalary recomputes an item's net pay from its components. Client-supplied
// net values are never trusted; every write goes through this.
func NetSalary(item Item) decimal.Decimal {
	deductions := item.Tax.
		Add(item.SocialContribution).
		Add(item.Advance).
		Add(item.LatenessDeduction).
		Add(item.OtherDeduction)
	return item.BaseSalary.Add(item.Bonus).Sub(deductions)
}

func TotalNet(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.NetSalary)
	}
	return total
}
