package state

import (
	"fmt"
	"sync"
)

// #region context-struct

// Context holds the mutable state shared between the control loop and
// the decision engine: the arm pose, the gripper, and the tracked
// object registry. One coarse lock guards all of it; the decision
// cycle is infrequent relative to control-loop ticks, so finer
// locking buys nothing.
type Context struct {
	mu          sync.Mutex
	pose        Pose
	gripperOpen bool

	objects     map[string]Pose
	objectOrder []string

	grasped        string
	dropped        string
	gripperChanged bool
}

// NewContext creates a context with the given initial object poses.
// Objects render in the order given.
func NewContext(names []string, poses []Pose) (*Context, error) {
	if len(names) != len(poses) {
		return nil, fmt.Errorf("state: %d object names for %d poses", len(names), len(poses))
	}
	objects := make(map[string]Pose, len(names))
	order := make([]string, 0, len(names))
	for i, name := range names {
		if _, dup := objects[name]; dup {
			return nil, fmt.Errorf("state: duplicate object %q", name)
		}
		objects[name] = poses[i].Normalized()
		order = append(order, name)
	}
	return &Context{
		gripperOpen: true,
		objects:     objects,
		objectOrder: order,
	}, nil
}

// #endregion context-struct

// #region pose-updates

// SetPose records the latest arm feedback pose. Orientation wraps into
// [0,360). While an object is grasped its pose tracks the arm pose.
func (c *Context) SetPose(p Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose = p.Normalized()
	if c.grasped != "" {
		c.objects[c.grasped] = c.pose
	}
}

// Pose returns the current arm pose.
func (c *Context) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// GripperOpen reports the current gripper state.
func (c *Context) GripperOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gripperOpen
}

// SetGripper sets the gripper state directly, for gripper actions
// executed through the joystick binding.
func (c *Context) SetGripper(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gripperOpen != open {
		c.gripperOpen = open
		c.gripperChanged = true
	}
}

// #endregion pose-updates

// #region grasp-drop

// Grasp marks an object as held: its pose tracks the arm from now on
// and the gripper closes.
func (c *Context) Grasp(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[name]; !ok {
		return fmt.Errorf("state: unknown object %q", name)
	}
	c.grasped = name
	c.dropped = ""
	c.objects[name] = c.pose
	c.gripperOpen = false
	c.gripperChanged = true
	return nil
}

// Drop releases the currently grasped object: its height component is
// pinned low and the gripper reopens.
func (c *Context) Drop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grasped == "" {
		return fmt.Errorf("state: no object grasped")
	}
	name := c.grasped
	p := c.objects[name]
	p.Z = 0
	c.objects[name] = p
	c.grasped = ""
	c.dropped = name
	c.gripperOpen = true
	c.gripperChanged = true
	return nil
}

// Grasped returns the identifier of the held object, or "".
func (c *Context) Grasped() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grasped
}

// ConsumeGripperChanged reports whether a grasp/drop happened since the
// last call and clears the flag. The control loop uses it to force a
// fresh decision cycle.
func (c *Context) ConsumeGripperChanged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.gripperChanged
	c.gripperChanged = false
	return changed
}

// #endregion grasp-drop

// #region snapshot

// Snapshot copies the context under the lock. The copy is immutable
// and safe to read while the control loop keeps mutating the context.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	objects := make([]ObjectPose, 0, len(c.objectOrder))
	for _, name := range c.objectOrder {
		objects = append(objects, ObjectPose{Name: name, Pose: c.objects[name]})
	}
	return Snapshot{
		Pose:        c.pose,
		GripperOpen: c.gripperOpen,
		Objects:     objects,
		Grasped:     c.grasped,
		Dropped:     c.dropped,
	}
}

// Exclusive applies fn to the current feedback pose and commits the
// result in one lock hold, so a feedback refresh never interleaves
// with a command in flight. The committed pose is normalized and a
// grasped object keeps tracking it, as with SetPose.
func (c *Context) Exclusive(fn func(Pose) Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose = fn(c.pose).Normalized()
	if c.grasped != "" {
		c.objects[c.grasped] = c.pose
	}
}

// #endregion snapshot
