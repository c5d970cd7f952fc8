package output

// PaymentMetrics records payment flow outcomes.
type PaymentMetrics interface {
	ObserveGatewayCall(op, outcome string)
	ObserveReconciliation(source, outcome string)
	ObserveNotification(outcome string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveGatewayCall(string, string)    {}
func (NopMetrics) ObserveReconciliation(string, string) {}
func (NopMetrics) ObserveNotification(string)           {}
