package paths

// Topic kinds of the picar protocol. Full topics are {root}/{kind}/{vehicleID}.

// Downstream: broker -> vehicle.
const (
	// Command carries an action request.
	// Payload: {"action": "forward"}
	Command = "command"
)

// Upstream: vehicle -> broker.
const (
	// State carries the latest snapshot, retained.
	// Payload: {"status": "forward", "status_text": "前进", "humidity": 44.0, "temperature": 20.0}
	State = "state"

	// Online carries the retained presence marker. The broker publishes the
	// offline variant as the vehicle's will.
	// Payload: {"vehicle_id": "...", "online": true/false, "reason": "..."}
	Online = "online"
)
