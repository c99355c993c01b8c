package commission_fee

// PercentageCommissionFee charges percent/100 of quantity*price.
type PercentageCommissionFee struct {
	percent float64
}

func NewPercentageCommissionFee(percent float64) CommissionFee {
	return &PercentageCommissionFee{percent: percent}
}

func (c *PercentageCommissionFee) Calculate(quantity float64, price float64) float64 {
	return quantity * price * c.percent / 100
}
