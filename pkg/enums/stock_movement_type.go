package enums

import "fmt"

// StockMovementType classifies entries in the stock movement ledger.
type StockMovementType string

const (
	StockMovementProduction        StockMovementType = "PRODUCTION"
	StockMovementSale              StockMovementType = "SALE"
	StockMovementReturn            StockMovementType = "RETURN"
	StockMovementAdjustment        StockMovementType = "ADJUSTMENT"
	StockMovementCompletelyDamaged StockMovementType = "COMPLETELY_DAMAGED"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementProduction,
	StockMovementSale,
	StockMovementReturn,
	StockMovementAdjustment,
	StockMovementCompletelyDamaged,
}

// String implements fmt.Stringer.
func (s StockMovementType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockMovementType.
func (s StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into a StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
