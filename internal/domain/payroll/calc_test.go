package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNetSalary(t *testing.T) {
	cases := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "base only",
			item: Item{BaseSalary: dec("2500.00")},
			want: "2500",
		},
		{
			name: "all components",
			item: Item{
				BaseSalary:         dec("3000.00"),
				Bonus:              dec("450.50"),
				Tax:                dec("320.10"),
				SocialContribution: dec("210.00"),
				Advance:            dec("100.00"),
				LatenessDeduction:  dec("15.40"),
				OtherDeduction:     dec("5.00"),
			},
			want: "2800",
		},
		{
			name: "deductions exceed gross",
			item: Item{
				BaseSalary: dec("1000.00"),
				Advance:    dec("1200.00"),
			},
			want: "-200",
		},
	}

	for _, tc := range cases {
		got := NetSalary(tc.item)
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got.String())
		}
	}
}

func TestTotalNet(t *testing.T) {
	items := []Item{
		{NetSalary: dec("2800.00")},
		{NetSalary: dec("1950.25")},
		{NetSalary: dec("2249.75")},
	}
	if got := TotalNet(items); !got.Equal(dec("7000")) {
		t.Fatalf("expected 7000, got %s", got.String())
	}
	if got := TotalNet(nil); !got.Equal(decimal.Zero) {
		t.Fatalf("empty run should total zero, got %s", got.String())
	}
}
