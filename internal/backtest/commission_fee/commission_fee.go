package commission_fee

type CommissionFee interface {
	// Calculate the commission for trading quantity units at price, in quote currency
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	// BrokerPercentage charges a flat percent of the traded notional.
	BrokerPercentage        Broker = "percentage"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerPercentage,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model for broker. feePercent only
// applies to BrokerPercentage, which is also the fallback for an empty broker.
func GetCommissionFeeHandler(broker Broker, feePercent float64) CommissionFee {
	switch broker {
	case BrokerPercentage, "":
		return NewPercentageCommissionFee(feePercent)
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
