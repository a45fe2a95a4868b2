package domain

// CanTransitionOrderStatus reports whether an order may move from one status
// to another. Every pair of known statuses is currently allowed; tightening
// the workflow only requires changing this function.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	return from.IsValid() && to.IsValid()
}
