package state

// #region pose

// Pose is an arm tool pose: position in centimeters, orientation in
// degrees. Orientation components are kept in [0,360).
type Pose struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	ThetaX float64 `json:"theta_x"`
	ThetaY float64 `json:"theta_y"`
	ThetaZ float64 `json:"theta_z"`
}

// Component returns position/orientation component i (0..5) in the
// x, y, z, theta_x, theta_y, theta_z ordering.
func (p Pose) Component(i int) float64 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	case 3:
		return p.ThetaX
	case 4:
		return p.ThetaY
	case 5:
		return p.ThetaZ
	}
	return 0
}

// Normalized returns the pose with orientation wrapped into [0,360).
func (p Pose) Normalized() Pose {
	p.ThetaX = wrapDegrees(p.ThetaX)
	p.ThetaY = wrapDegrees(p.ThetaY)
	p.ThetaZ = wrapDegrees(p.ThetaZ)
	return p
}

func wrapDegrees(v float64) float64 {
	for v >= 360 {
		v -= 360
	}
	for v < 0 {
		v += 360
	}
	return v
}

// #endregion pose

// #region snapshot

// ObjectPose pairs a tracked object identifier with its pose.
type ObjectPose struct {
	Name string `json:"name"`
	Pose Pose   `json:"pose"`
}

// Snapshot is an immutable copy of the context taken at the start of a
// decision cycle. The prompt builder reads snapshots only.
type Snapshot struct {
	Pose        Pose         `json:"pose"`
	GripperOpen bool         `json:"gripper_open"`
	Objects     []ObjectPose `json:"objects"`
	Grasped     string       `json:"grasped,omitempty"`
	Dropped     string       `json:"dropped,omitempty"`
}

// #endregion snapshot
