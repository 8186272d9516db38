package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// the due amount must equal the item total, both rounded to whole
	// currency units (amounts are stored as whole units)
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation verifies the aggregated item total equals DueAmount
// after whole-unit rounding.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	sum := decimal.Zero
	for _, it := range req.Items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}

	sumUnits := sum.Round(0).IntPart()
	dueUnits := decimal.NewFromFloat(req.DueAmount).Round(0).IntPart()
	if sumUnits != dueUnits {
		sl.ReportError(req.DueAmount, "due_amount", "DueAmount", "amount_match_items",
			fmt.Sprintf("items total %d != due amount %d", sumUnits, dueUnits))
	}
}
