package motion

const (
	DefaultLaneCount          = 3
	DefaultLaneWidth          = 2.0
	DefaultMaxHorizontalSpeed = 12.0
	DefaultVelocityBlend      = 10.0

	// SnapEpsilon is the distance under which the controller snaps onto
	// the target and stops.
	SnapEpsilon = 1e-4
	// MinDeltaTime floors the divisor used for the desired velocity.
	MinDeltaTime = 1e-4
)
