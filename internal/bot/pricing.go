package bot

import (
	"fmt"
	"strconv"
)

// CalculatePrice computes the order total from the selected codes:
// (size + type per unit) * units per pack + packaging, times the number
// of packs. The state machine only stores codes it validated, so an
// unknown code here means a programming error, not bad user input.
func CalculatePrice(s *Session) (float64, error) {
	size, ok := findOption(SizeOptions, s.Size)
	if !ok {
		return 0, fmt.Errorf("unknown size option %q", s.Size)
	}
	typ, ok := findOption(TypeOptions, s.Type)
	if !ok {
		return 0, fmt.Errorf("unknown type option %q", s.Type)
	}
	pack, ok := findOption(PackOptions, s.Pack)
	if !ok {
		return 0, fmt.Errorf("unknown pack option %q", s.Pack)
	}
	amount, ok := findOption(AmountOptions, s.Amount)
	if !ok {
		return 0, fmt.Errorf("unknown amount option %q", s.Amount)
	}

	units, err := strconv.Atoi(amount.Label)
	if err != nil {
		return 0, fmt.Errorf("amount option %q has non-numeric label: %w", s.Amount, err)
	}

	pricePerPack := (size.Price+typ.Price)*float64(units) + pack.Price

	return pricePerPack * float64(s.PackQuantity), nil
}
