package notify

import (
	"fmt"

	"github.com/kilianp07/zerowaste/core/model"
)

// NewRequestMessage is shown to a donor with at least one pending request.
const NewRequestMessage = "New pickup request available."

// AllocatedMessage tells a receiver its request was accepted.
func AllocatedMessage(requestID string) string {
	return fmt.Sprintf("Pickup %s successfully allocated.", requestID)
}

// LostMessage tells a receiver the donation went to someone else.
func LostMessage(requestID string) string {
	return fmt.Sprintf("Pickup %s allocated to another receiver.", requestID)
}

// DonorMessage returns the polling text for a donor given its pending
// requests. It is empty when nothing awaits a decision.
func DonorMessage(pending []model.PickupRequest) string {
	if len(pending) == 0 {
		return ""
	}
	return NewRequestMessage
}

// ReceiverMessage returns the polling text for a receiver: the outcome of
// its most recently decided request, or empty while all are pending.
func ReceiverMessage(reqs []model.PickupRequest) string {
	var latest *model.PickupRequest
	for i := range reqs {
		r := &reqs[i]
		if !r.Status.Terminal() {
			continue
		}
		if latest == nil || r.DecidedAt.After(latest.DecidedAt) {
			latest = r
		}
	}
	if latest == nil {
		return ""
	}
	if latest.Status == model.RequestAccepted {
		return AllocatedMessage(latest.ID)
	}
	return LostMessage(latest.ID)
}
