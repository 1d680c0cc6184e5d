package interactive

import (
	"context"
	"fmt"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
)

// cmdStatus handles the status command.
func (p *Probe) cmdStatus() {
	st, err := p.headset.Status()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Hardware connected:  %v\n", st.HardwareConnected)
	fmt.Fprintf(p.rl.Stdout(), "Hardware ready:      %v\n", st.HardwareReady)
	fmt.Fprintf(p.rl.Stdout(), "Motion ready:        %v\n", st.MotionReady)
	fmt.Fprintf(p.rl.Stdout(), "Eye tracking:        enabled=%v ready=%v\n", st.EyeTrackingEnabled, st.EyeTrackingReady)
	fmt.Fprintf(p.rl.Stdout(), "Calibration:         calibrated=%v calibrating=%v\n", st.EyeTrackingCalibrated, st.EyeTrackingCalibrating)
	fmt.Fprintf(p.rl.Stdout(), "User present:        %v\n", st.UserPresent)
}

// cmdVersions handles the versions command.
func (p *Probe) cmdVersions() {
	v, err := p.headset.Versions()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Client:   %s\n", v.Client)
	fmt.Fprintf(p.rl.Stdout(), "Runtime:  %s\n", v.Runtime)
	fmt.Fprintf(p.rl.Stdout(), "Firmware: %d (max supported %d)\n", v.Firmware, v.MaxFirmware)
	if err := p.headset.CheckSoftwareVersions(); err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Compatibility: %v\n", err)
	} else {
		fmt.Fprintln(p.rl.Stdout(), "Compatibility: ok")
	}
}

// cmdHardware handles the hardware command.
func (p *Probe) cmdHardware() {
	info, err := p.headset.HardwareInfo()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Model:        %s\n", info.Model)
	fmt.Fprintf(p.rl.Stdout(), "Manufacturer: %s\n", info.Manufacturer)
	fmt.Fprintf(p.rl.Stdout(), "Serial:       %s\n", info.SerialNumber)
}

// cmdLicenses handles the licenses command.
func (p *Probe) cmdLicenses() {
	licenses, err := p.headset.Licenses()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if len(licenses) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "No licenses activated")
		return
	}
	for _, l := range licenses {
		expiry := "never expires"
		if !l.Expiration.IsZero() {
			expiry = "expires " + l.Expiration.Format("2006-01-02")
		}
		fmt.Fprintf(p.rl.Stdout(), "%s  %s (%s, %s)\n", l.UUID, l.Type, l.Licensee, expiry)
	}
}

// cmdCaps handles the caps command.
func (p *Probe) cmdCaps() {
	fmt.Fprintf(p.rl.Stdout(), "Active:  %s\n", p.headset.ActiveCapabilities())
	fmt.Fprintf(p.rl.Stdout(), "Passive: %s\n", p.headset.PassiveCapabilities())
}

// parseCaps parses capability names into a combined set.
func parseCaps(args []string) (capability.Capabilities, error) {
	var caps capability.Capabilities
	for _, arg := range args {
		c, ok := capability.Parse(arg)
		if !ok {
			return 0, fmt.Errorf("unknown capability: %s", arg)
		}
		caps |= c
	}
	return caps, nil
}

// cmdRegister handles the register command.
func (p *Probe) cmdRegister(args []string) {
	passive := len(args) > 0 && args[0] == "passive"
	if passive {
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: register [passive] <capability>...")
		return
	}
	caps, err := parseCaps(args)
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if passive {
		err = p.headset.RegisterPassiveCapabilities(caps)
	} else {
		err = p.headset.RegisterCapabilities(caps)
	}
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	p.cmdCaps()
}

// cmdUnregister handles the unregister command.
func (p *Probe) cmdUnregister(args []string) {
	passive := len(args) > 0 && args[0] == "passive"
	if passive {
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: unregister [passive] <capability>...")
		return
	}
	caps, err := parseCaps(args)
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if passive {
		err = p.headset.UnregisterPassiveCapabilities(caps)
	} else {
		err = p.headset.UnregisterCapabilities(caps)
	}
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	p.cmdCaps()
}

// cmdFetch handles the fetch command.
func (p *Probe) cmdFetch(args []string) {
	domain := "eye"
	if len(args) > 0 {
		domain = args[0]
	}

	var (
		ts  frame.Timestamp
		err error
	)
	switch domain {
	case "eye":
		ts, err = p.headset.FetchEyeTrackingData()
	case "pose":
		ts, err = p.headset.FetchPoseData()
	case "image":
		ts, err = p.headset.FetchEyesImage()
	case "position":
		ts, err = p.headset.FetchPositionImage()
	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: fetch [eye|pose|image|position]")
		return
	}
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Fetched %s frame %s\n", domain, ts)
}

// cmdGaze handles the gaze command. Without an eye argument it shows the
// combined gaze ray, otherwise the per-eye gaze vector.
func (p *Probe) cmdGaze(args []string) {
	if len(args) == 0 {
		ray, err := p.headset.CombinedGazeRay()
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			if ray == (geom.Ray{}) {
				return
			}
		}
		fmt.Fprintf(p.rl.Stdout(), "Combined ray: origin=%s direction=%s\n",
			formatVec3(ray.Origin), formatVec3(ray.Direction))
		return
	}

	eye, ok := parseEye(args[0])
	if !ok {
		fmt.Fprintln(p.rl.Stdout(), "Usage: gaze [left|right]")
		return
	}
	v, err := p.headset.GazeVector(eye)
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		if v == (geom.Vec3{}) {
			return
		}
	}
	fmt.Fprintf(p.rl.Stdout(), "%s gaze: %s\n", eye, formatVec3(v))
}

// cmdDepth handles the depth command.
func (p *Probe) cmdDepth() {
	depth, err := p.headset.CombinedGazeDepth()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		if depth == 0 {
			return
		}
	}
	fmt.Fprintf(p.rl.Stdout(), "Gaze depth: %.3f m\n", depth)
}

// cmdEyes handles the eyes command.
func (p *Probe) cmdEyes() {
	for _, eye := range []geom.Eye{geom.EyeLeft, geom.EyeRight} {
		state, err := p.headset.EyeState(eye)
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "%s: %v\n", eye, err)
			continue
		}
		line := fmt.Sprintf("%s: %s", eye, state)
		if r, err := p.headset.PupilRadius(eye); err == nil {
			line += fmt.Sprintf(" pupil=%.4fm", r)
		}
		if r, err := p.headset.IrisRadius(eye); err == nil {
			line += fmt.Sprintf(" iris=%.4fm", r)
		}
		fmt.Fprintln(p.rl.Stdout(), line)
	}
	if ipd, err := p.headset.UserIPD(); err == nil {
		fmt.Fprintf(p.rl.Stdout(), "IPD: %.4fm\n", ipd)
	}
}

// cmdUser handles the user command.
func (p *Probe) cmdUser(args []string) {
	if len(args) == 0 {
		present, err := p.headset.IsUserPresent()
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "User present: %v\n", present)
		return
	}
	switch args[0] {
	case "on":
		p.runtime.SetUserPresent(true)
		fmt.Fprintln(p.rl.Stdout(), "Simulated user present")
	case "off":
		p.runtime.SetUserPresent(false)
		fmt.Fprintln(p.rl.Stdout(), "Simulated user absent")
	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: user [on|off]")
	}
}

// cmdPose handles the pose command.
func (p *Probe) cmdPose() {
	pose, err := p.headset.Pose()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	ts, _ := p.headset.PoseTimestamp()
	fmt.Fprintf(p.rl.Stdout(), "Frame:       %s\n", ts)
	fmt.Fprintf(p.rl.Stdout(), "Position:    %s\n", formatVec3(pose.Position))
	fmt.Fprintf(p.rl.Stdout(), "Standing:    %s\n", formatVec3(pose.StandingPosition))
	fmt.Fprintf(p.rl.Stdout(), "Orientation: (%.3f, %.3f, %.3f, %.3f)\n",
		pose.Orientation.W, pose.Orientation.X, pose.Orientation.Y, pose.Orientation.Z)
	fmt.Fprintf(p.rl.Stdout(), "Velocity:    %s\n", formatVec3(pose.Velocity))
}

// cmdWait handles the wait command.
func (p *Probe) cmdWait(args []string) {
	timeout := time.Second
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			fmt.Fprintln(p.rl.Stdout(), "Usage: wait [timeout]")
			return
		}
		timeout = d
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	start := time.Now()
	if err := p.headset.WaitForProcessedEyeFrame(ctx); err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "New eye frame after %v\n", time.Since(start).Round(time.Microsecond))
}

// cmdGazed handles the gazed command.
func (p *Probe) cmdGazed() {
	id, err := p.headset.GazedObjectID()
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if id <= 0 {
		fmt.Fprintln(p.rl.Stdout(), "No object gazed at")
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Gazed object: %d\n", id)
}

func parseEye(s string) (geom.Eye, bool) {
	switch s {
	case "left", "l":
		return geom.EyeLeft, true
	case "right", "r":
		return geom.EyeRight, true
	default:
		return 0, false
	}
}

func formatVec3(v geom.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
