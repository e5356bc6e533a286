package enums

import "fmt"

// TransactionType classifies entries in the distributor wallet ledger.
type TransactionType string

const (
	TransactionTypeRecharge     TransactionType = "RECHARGE"
	TransactionTypeOrderPayment TransactionType = "ORDER_PAYMENT"
	TransactionTypeOrderRefund  TransactionType = "ORDER_REFUND"
	TransactionTypeReturnCredit TransactionType = "RETURN_CREDIT"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeRecharge,
	TransactionTypeOrderPayment,
	TransactionTypeOrderRefund,
	TransactionTypeReturnCredit,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
