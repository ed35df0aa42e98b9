// README: Fee decision labels produced by cancellation adjudication.
package types

type Decision string

const (
	FeeWaived       Decision = "fee waived"
	BaseFee         Decision = "base fee"
	BaseVariableFee Decision = "base + variable fee"
)

func (d Decision) Valid() bool {
	switch d {
	case FeeWaived, BaseFee, BaseVariableFee:
		return true
	}
	return false
}
