package models

// Link edges: PENDING -> ACCEPTED | BLOCKED, any non-REMOVED -> BLOCKED,
// any -> REMOVED.

func (s LinkStatus) CanAccept() bool {
	return s == LinkStatusPending
}

func (s LinkStatus) CanBlock() bool {
	return s != LinkStatusRemoved
}

// Order edges: CREATED -> ACCEPTED | REJECTED. Both targets are terminal.

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	return s == OrderStatusCreated && (to == OrderStatusAccepted || to == OrderStatusRejected)
}

var complaintTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusOpen:       {ComplaintStatusInProgress, ComplaintStatusResolved},
	ComplaintStatusInProgress: {ComplaintStatusResolved},
	ComplaintStatusEscalated:  {ComplaintStatusInProgress, ComplaintStatusResolved},
	ComplaintStatusResolved:   {},
}

// CanTransitionTo covers owner-driven status updates. Escalation has its
// own source set, see CanEscalate.
func (s ComplaintStatus) CanTransitionTo(to ComplaintStatus) bool {
	for _, allowed := range complaintTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s ComplaintStatus) CanEscalate() bool {
	return s == ComplaintStatusOpen || s == ComplaintStatusInProgress
}
